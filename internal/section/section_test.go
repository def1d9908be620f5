package section

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/guardpost/guardpost/internal/backend"
)

type saveCall struct {
	token, profileID, namespace string
	fields                      map[string]any
}

type fakeSaver struct {
	mu      sync.Mutex
	calls   []saveCall
	err     error
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeSaver) UpdateProfileSection(ctx context.Context, token, profileID, namespace string, fields map[string]any) error {
	f.mu.Lock()
	f.calls = append(f.calls, saveCall{token, profileID, namespace, fields})
	block, entered := f.block, f.entered
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	return f.err
}

func (f *fakeSaver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func aboutEditor(saver Saver) *Editor {
	return NewEditor(About, "p1", map[string]any{"aboutMe": "Former officer"}, saver)
}

func TestCancelRestoresSavedValues(t *testing.T) {
	saver := &fakeSaver{}
	e := aboutEditor(saver)

	e.EnterEdit()
	if err := e.SetField("aboutMe", "Retired officer"); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if err := e.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	st := e.State()
	if st.Editing {
		t.Error("cancel should exit edit mode")
	}
	if got := st.Saved["aboutMe"]; got != "Former officer" {
		t.Errorf("aboutMe = %v, want Former officer", got)
	}
	if st.Draft != nil {
		t.Errorf("draft should be discarded, got %v", st.Draft)
	}

	// Cancel is idempotent.
	if err := e.Cancel(); err != nil {
		t.Fatalf("second Cancel: %v", err)
	}
	if got := e.State().Saved["aboutMe"]; got != "Former officer" {
		t.Errorf("aboutMe after second cancel = %v", got)
	}
	if saver.callCount() != 0 {
		t.Errorf("cancel must not call the backend, got %d calls", saver.callCount())
	}
}

func TestSaveSuccessReplacesDisplayedValues(t *testing.T) {
	saver := &fakeSaver{}
	e := aboutEditor(saver)

	e.EnterEdit()
	e.SetField("aboutMe", "Retired officer")
	if err := e.Save(context.Background(), "tok"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	st := e.State()
	if st.Editing {
		t.Error("save should exit edit mode")
	}
	if got := st.Saved["aboutMe"]; got != "Retired officer" {
		t.Errorf("aboutMe = %v, want Retired officer", got)
	}
	if saver.callCount() != 1 {
		t.Fatalf("expected 1 call, got %d", saver.callCount())
	}
	call := saver.calls[0]
	if call.token != "tok" || call.profileID != "p1" || call.namespace != "about" {
		t.Errorf("call = %+v", call)
	}
	if call.fields["aboutMe"] != "Retired officer" {
		t.Errorf("payload aboutMe = %v", call.fields["aboutMe"])
	}
}

func TestSaveWithoutTokenSkipsNetwork(t *testing.T) {
	saver := &fakeSaver{}
	e := aboutEditor(saver)

	e.EnterEdit()
	e.SetField("aboutMe", "Retired officer")
	err := e.Save(context.Background(), "")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Save err = %v, want ErrUnauthorized", err)
	}
	if saver.callCount() != 0 {
		t.Errorf("expected no calls, got %d", saver.callCount())
	}
	st := e.State()
	if !st.Editing || st.Draft["aboutMe"] != "Retired officer" {
		t.Errorf("draft should be kept in edit mode, got %+v", st)
	}
	if st.Message != UnauthorizedMessage {
		t.Errorf("Message = %q", st.Message)
	}
}

func TestSaveFailureKeepsDraft(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"backend message", &backend.Error{StatusCode: 400, Message: "About me is too long"}, "About me is too long"},
		{"no message", &backend.Error{StatusCode: 500}, backend.GenericMessage},
		{"network", errors.New("connection reset"), backend.GenericMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saver := &fakeSaver{err: tt.err}
			e := aboutEditor(saver)
			e.EnterEdit()
			e.SetField("aboutMe", "Retired officer")

			err := e.Save(context.Background(), "tok")
			if err == nil {
				t.Fatal("expected error")
			}
			var be *backend.Error
			if _, ok := tt.err.(*backend.Error); ok && !errors.As(err, &be) {
				t.Errorf("error should wrap *backend.Error, got %v", err)
			}

			st := e.State()
			if !st.Editing {
				t.Error("failure should stay in edit mode")
			}
			if st.Draft["aboutMe"] != "Retired officer" {
				t.Errorf("draft = %v", st.Draft["aboutMe"])
			}
			if st.Saved["aboutMe"] != "Former officer" {
				t.Errorf("saved values must not change, got %v", st.Saved["aboutMe"])
			}
			if st.Message != tt.message {
				t.Errorf("Message = %q, want %q", st.Message, tt.message)
			}
			if saver.callCount() != 1 {
				t.Errorf("expected exactly one call, got %d", saver.callCount())
			}
		})
	}
}

func TestSaveInFlightIsGuarded(t *testing.T) {
	saver := &fakeSaver{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	e := aboutEditor(saver)
	e.EnterEdit()
	e.SetField("aboutMe", "Retired officer")

	done := make(chan error, 1)
	go func() { done <- e.Save(context.Background(), "tok") }()
	<-saver.entered

	if err := e.Save(context.Background(), "tok"); !errors.Is(err, ErrSaveInFlight) {
		t.Errorf("second Save err = %v, want ErrSaveInFlight", err)
	}
	if err := e.SetField("aboutMe", "changed"); !errors.Is(err, ErrSaveInFlight) {
		t.Errorf("SetField during save err = %v, want ErrSaveInFlight", err)
	}
	if err := e.Cancel(); !errors.Is(err, ErrSaveInFlight) {
		t.Errorf("Cancel during save err = %v, want ErrSaveInFlight", err)
	}
	if !e.State().Saving {
		t.Error("State should report saving")
	}

	close(saver.block)
	if err := <-done; err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if saver.callCount() != 1 {
		t.Errorf("expected 1 call, got %d", saver.callCount())
	}
}

func TestDraftOperationsRequireEditMode(t *testing.T) {
	e := aboutEditor(&fakeSaver{})
	if err := e.SetField("aboutMe", "x"); !errors.Is(err, ErrNotEditing) {
		t.Errorf("SetField err = %v", err)
	}
	if err := e.UpdateDraft(map[string]any{"aboutMe": "x"}); !errors.Is(err, ErrNotEditing) {
		t.Errorf("UpdateDraft err = %v", err)
	}
	if err := e.Save(context.Background(), "tok"); !errors.Is(err, ErrNotEditing) {
		t.Errorf("Save err = %v", err)
	}
}

func TestEnterEditKeepsExistingDraft(t *testing.T) {
	e := aboutEditor(&fakeSaver{})
	e.EnterEdit()
	e.SetField("aboutMe", "Retired officer")
	e.EnterEdit()
	if got := e.State().Draft["aboutMe"]; got != "Retired officer" {
		t.Errorf("draft = %v", got)
	}
}

func TestDraftIsIndependentOfSaved(t *testing.T) {
	e := NewEditor(About, "p1", map[string]any{"licences": []any{"Door Supervisor"}}, &fakeSaver{})
	e.EnterEdit()
	if err := e.SetField("licences", []string{"Door Supervisor", "CCTV"}); err != nil {
		t.Fatal(err)
	}
	e.Cancel()
	if got := e.State().Saved["licences"].([]string); len(got) != 1 {
		t.Errorf("saved licences = %v", got)
	}
}

func TestUpdateDraftIsAtomic(t *testing.T) {
	e := aboutEditor(&fakeSaver{})
	e.EnterEdit()
	err := e.UpdateDraft(map[string]any{"aboutMe": "Retired officer", "bogus": "x"})
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("err = %v, want ErrUnknownField", err)
	}
	if got := e.State().Draft["aboutMe"]; got != "Former officer" {
		t.Errorf("draft changed despite error: %v", got)
	}
}

func TestSetFieldKindMismatch(t *testing.T) {
	e := aboutEditor(&fakeSaver{})
	e.EnterEdit()
	var verr *ValidationError
	if err := e.SetField("aboutMe", 42); !errors.As(err, &verr) {
		t.Errorf("number for text field: err = %v", err)
	}
	if err := e.SetField("licences", "one"); !errors.As(err, &verr) {
		t.Errorf("string for list field: err = %v", err)
	}
	if err := e.SetField("licences", []any{"a", "b"}); err != nil {
		t.Errorf("[]any of strings should be accepted: %v", err)
	}
}

func TestSaveValidationFailure(t *testing.T) {
	saver := &fakeSaver{}
	e := NewEditor(Fees, "p1", nil, saver)
	e.EnterEdit()
	e.SetField("hourlyRate", "twelve")
	e.SetField("currency", "JPY")

	err := e.Save(context.Background(), "tok")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if len(verr.Messages) != 2 {
		t.Errorf("messages = %v", verr.Messages)
	}
	if saver.callCount() != 0 {
		t.Error("invalid draft must not be sent")
	}
	if !e.State().Editing {
		t.Error("should stay in edit mode")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		sec     Section
		values  Values
		wantErr bool
	}{
		{"empty fees", Fees, Fees.Extract(nil), false},
		{"decimal rate", Fees, Values{"hourlyRate": "14.50", "currency": "GBP"}, false},
		{"non numeric", Fees, Values{"hourlyRate": "abc"}, true},
		{"too many licences", About, Values{"licences": make([]string, 11)}, true},
		{"empty service entry", Services, Values{"services": []string{""}}, true},
		{"services ok", Services, Values{"services": []string{"Door supervision"}, "areas": []string{"Leeds"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sec.Validate(tt.values)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	v := Services.Extract(map[string]any{
		"services":     []any{"Door supervision", "CCTV"},
		"areas":        "Leeds",
		"availability": map[string]any{"weekdays": "yes"},
		"ignored":      "x",
	})
	if got := v["services"].([]string); len(got) != 2 {
		t.Errorf("services = %v", got)
	}
	if got := v["areas"].([]string); len(got) != 1 || got[0] != "Leeds" {
		t.Errorf("areas = %v", got)
	}
	if got := v["availability"].(map[string]any)["weekdays"]; got != "yes" {
		t.Errorf("availability = %v", v["availability"])
	}
	if _, ok := v["ignored"]; ok {
		t.Error("unknown fields should be dropped")
	}

	fees := Fees.Extract(map[string]any{"hourlyRate": 15.5})
	if fees["hourlyRate"] != "15.5" || fees["notes"] != "" {
		t.Errorf("fees = %v", fees)
	}
}

func TestFromForm(t *testing.T) {
	form := url.Values{
		"services":              {"Door supervision\n\n  CCTV  \n"},
		"areas":                 {""},
		"availability.weekdays": {" yes "},
	}
	got := Services.FromForm(form)
	if s := got["services"].([]string); len(s) != 2 || s[1] != "CCTV" {
		t.Errorf("services = %v", s)
	}
	if a := got["areas"].([]string); len(a) != 0 {
		t.Errorf("areas = %v", a)
	}
	avail := got["availability"].(map[string]any)
	if avail["weekdays"] != "yes" || avail["nights"] != "" {
		t.Errorf("availability = %v", avail)
	}
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"about", "fees", "services"} {
		if _, err := Lookup(name); err != nil {
			t.Errorf("Lookup(%q): %v", name, err)
		}
	}
	if _, err := Lookup("billing"); !errors.Is(err, ErrUnknownSection) {
		t.Errorf("Lookup(billing) err = %v", err)
	}
	if len(All()) != 3 {
		t.Errorf("All() = %d sections", len(All()))
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	saver := &fakeSaver{}

	e := r.Open("s1", About, "p1", map[string]any{"aboutMe": "Former officer"}, saver)
	e.EnterEdit()
	e.SetField("aboutMe", "Retired officer")

	again := r.Open("s1", About, "p1", map[string]any{"aboutMe": "Fetched again"}, saver)
	if again != e {
		t.Error("editor mid-edit should be kept")
	}

	e.Cancel()
	fresh := r.Open("s1", About, "p1", map[string]any{"aboutMe": "Fetched again"}, saver)
	if fresh == e {
		t.Error("idle editor should be rebuilt from fresh values")
	}
	if got := fresh.State().Saved["aboutMe"]; got != "Fetched again" {
		t.Errorf("aboutMe = %v", got)
	}
	if r.Get("s1", "about") != fresh {
		t.Error("Get should return the open editor")
	}

	r.DropSession("s1")
	if r.Get("s1", "about") != nil || r.Sessions() != 0 {
		t.Error("DropSession should forget the editors")
	}
}

func TestRegistryRebuildsEditorForOtherProfile(t *testing.T) {
	r := NewRegistry()
	saver := &fakeSaver{}

	e := r.Open("s1", About, "pA", map[string]any{"aboutMe": "A secret bio"}, saver)
	e.EnterEdit()

	other := r.Open("s1", About, "pB", map[string]any{"aboutMe": "B bio"}, saver)
	if other == e {
		t.Fatal("editor bound to another profile must not be reused")
	}
	st := other.State()
	if st.Editing || st.Saved["aboutMe"] != "B bio" || other.ProfileID() != "pB" {
		t.Errorf("state = %+v, profile = %q", st, other.ProfileID())
	}
}

func TestRegistryEvictIdle(t *testing.T) {
	r := NewRegistry()
	saver := &fakeSaver{}
	start := time.Now()
	r.now = func() time.Time { return start }

	r.Open("idle", About, "p1", nil, saver)
	r.Open("busy", About, "p2", nil, saver)

	r.now = func() time.Time { return start.Add(45 * time.Minute) }
	r.Get("busy", "about")

	r.now = func() time.Time { return start.Add(90 * time.Minute) }
	if n := r.EvictIdle(time.Hour); n != 1 {
		t.Errorf("EvictIdle = %d, want 1", n)
	}
	if r.Get("idle", "about") != nil {
		t.Error("idle session should be evicted")
	}
	if r.Get("busy", "about") == nil {
		t.Error("recently used session should be kept")
	}
}
