package section

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/guardpost/guardpost/internal/backend"
)

// Saver persists one section's fields. *backend.Client implements it.
type Saver interface {
	UpdateProfileSection(ctx context.Context, token, profileID, namespace string, fields map[string]any) error
}

// State is a snapshot of an Editor for rendering.
type State struct {
	Section Section
	Saved   Values
	Draft   Values
	Editing bool
	Saving  bool
	Message string
}

// Editor drives the read/edit/save/cancel cycle of one profile section.
// Displayed values only change after a confirmed save.
type Editor struct {
	mu        sync.Mutex
	section   Section
	profileID string
	saver     Saver

	saved   Values
	draft   Values
	editing bool
	saving  bool
	message string
}

// NewEditor creates an editor showing current, the section's namespace
// object as fetched from the backend.
func NewEditor(sec Section, profileID string, current map[string]any, saver Saver) *Editor {
	return &Editor{
		section:   sec,
		profileID: profileID,
		saver:     saver,
		saved:     sec.Extract(current),
	}
}

// Section returns the schema the editor was built for.
func (e *Editor) Section() Section { return e.section }

// ProfileID returns the profile the editor saves to.
func (e *Editor) ProfileID() string { return e.profileID }

// EnterEdit copies the displayed values into a fresh draft. Calling it while
// already editing keeps the existing draft.
func (e *Editor) EnterEdit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.editing {
		return
	}
	e.draft = e.saved.Clone()
	e.editing = true
	e.message = ""
}

// SetField changes one draft field.
func (e *Editor) SetField(name string, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setFieldLocked(name, value)
}

// UpdateDraft changes several draft fields at once. Nothing is applied when
// any field is rejected.
func (e *Editor) UpdateDraft(values map[string]any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkDraftLocked(); err != nil {
		return err
	}
	next := e.draft.Clone()
	for name, value := range values {
		f, ok := e.section.Field(name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, name)
		}
		v, err := checkKind(f, value)
		if err != nil {
			return err
		}
		next[name] = v
	}
	e.draft = next
	return nil
}

func (e *Editor) setFieldLocked(name string, value any) error {
	if err := e.checkDraftLocked(); err != nil {
		return err
	}
	f, ok := e.section.Field(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	v, err := checkKind(f, value)
	if err != nil {
		return err
	}
	e.draft[name] = v
	return nil
}

func (e *Editor) checkDraftLocked() error {
	if !e.editing {
		return ErrNotEditing
	}
	if e.saving {
		return ErrSaveInFlight
	}
	return nil
}

// Save sends the draft as a single authenticated update. On success the
// draft becomes the displayed values and edit mode ends. On any failure the
// draft is kept, edit mode stays active and Message explains why. Only one
// save may be outstanding at a time.
func (e *Editor) Save(ctx context.Context, token string) error {
	e.mu.Lock()
	if !e.editing {
		e.mu.Unlock()
		return ErrNotEditing
	}
	if e.saving {
		e.mu.Unlock()
		return ErrSaveInFlight
	}
	if token == "" {
		e.message = UnauthorizedMessage
		e.mu.Unlock()
		return ErrUnauthorized
	}
	if err := e.section.Validate(e.draft); err != nil {
		e.message = err.Error()
		e.mu.Unlock()
		return err
	}
	payload := e.draft.Clone()
	e.saving = true
	e.message = ""
	e.mu.Unlock()

	err := e.saver.UpdateProfileSection(ctx, token, e.profileID, e.section.Namespace, payload)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.saving = false
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			e.message = UnauthorizedMessage
		} else {
			e.message = backend.Message(err)
		}
		return fmt.Errorf("saving %s: %w", e.section.Name, err)
	}
	e.saved = payload
	e.draft = nil
	e.editing = false
	return nil
}

// Cancel discards the draft and restores the last saved values. It is a
// no-op outside edit mode and is refused while a save is outstanding.
func (e *Editor) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.saving {
		return ErrSaveInFlight
	}
	e.draft = nil
	e.editing = false
	e.message = ""
	return nil
}

// State returns a copy of the editor's current state.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		Section: e.section,
		Saved:   e.saved.Clone(),
		Draft:   e.draft.Clone(),
		Editing: e.editing,
		Saving:  e.saving,
		Message: e.message,
	}
}

// Editing reports whether the editor is in edit mode.
func (e *Editor) Editing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editing
}
