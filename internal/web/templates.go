package web

// layoutTemplate wraps every page. Pages define "content".
const layoutTemplate = `{{define "layout"}}<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}} | {{.SiteName}}</title>
  <link rel="stylesheet" href="/static/style.css">
</head>
<body>
  <header class="site-header">
    <a class="brand" href="/">{{.SiteName}}</a>
    <nav>
      <a href="/jobs/board">Job board</a>
      <a href="/jobs">My listings</a>
      <a href="/pricing">Pricing</a>
      {{if .SignedIn}}
      <a href="/profile">{{if .DisplayName}}{{.DisplayName}}{{else}}Profile{{end}}</a>
      <a href="/favorites">Favorites</a>
      <a href="/account/orders">Orders</a>
      <form method="post" action="/signout" class="inline"><button type="submit">Sign out</button></form>
      {{else}}
      <a href="/signin">Sign in</a>
      {{end}}
    </nav>
  </header>
  <main class="content">
    {{if .Flash}}<p class="flash">{{.Flash}}</p>{{end}}
    {{if .Error}}<p class="error" role="alert">{{.Error}}</p>{{end}}
    {{template "content" .}}
  </main>
  <footer class="site-footer">
    <a href="/pages/privacy-policy">Privacy</a>
    <a href="/pages/terms">Terms</a>
    <a href="/pages/cookie-policy">Cookies</a>
  </footer>
  {{if .ChatEnabled}}
  <div class="chat-widget" id="chat-widget">
    <div class="chat-log" id="chat-log"></div>
    <form id="chat-form"><input id="chat-input" autocomplete="off" placeholder="Ask us anything..."><button type="submit">Send</button></form>
  </div>
  <script src="/static/chat.js"></script>
  {{end}}
</body>
</html>{{end}}`

var pageTemplates = map[string]string{
	"markdown": `{{define "content"}}<article class="page-content">{{.Data.HTML}}</article>{{end}}`,

	"error": `{{define "content"}}<h1>{{.Title}}</h1>{{end}}`,

	"pricing": `{{define "content"}}
<h1>Membership tiers</h1>
<div class="tiers">
  {{range .Data.Tiers}}
  <section class="tier">
    <h2>{{.Name}}</h2>
    <p class="price">{{.Currency}} {{.Price.StringFixed 2}} / {{.Period}}</p>
    <p>{{.Summary}}</p>
  </section>
  {{end}}
</div>
<table class="tier-matrix">
  <thead><tr><th>Feature</th>{{range .Data.Tiers}}<th>{{.Name}}</th>{{end}}</tr></thead>
  <tbody>
  {{range .Data.Rows}}
    <tr><td>{{.Label}}</td>{{range .Included}}<td>{{if .}}&#10003;{{else}}&mdash;{{end}}</td>{{end}}</tr>
  {{end}}
  </tbody>
</table>{{end}}`,

	"signin": `{{define "content"}}
<h1>Sign in</h1>
<form method="post" action="/signin" class="stacked">
  <input type="hidden" name="next" value="{{.Data.Next}}">
  <label>Email <input type="email" name="email" value="{{.Data.Email}}" required></label>
  <label>Password <input type="password" name="password" required></label>
  <button type="submit">Sign in</button>
</form>{{end}}`,

	"twofactor": `{{define "content"}}
<div class="popup" role="dialog" aria-labelledby="twofactor-title">
  <h2 id="twofactor-title">Two-step verification</h2>
  <p>Enter the code we sent you.</p>
  <form method="post" action="/signin/verify" class="stacked">
    <input type="hidden" name="next" value="{{.Data.Next}}">
    <label>Code <input name="code" inputmode="numeric" autocomplete="one-time-code" required></label>
    <button type="submit">Verify</button>
  </form>
</div>{{end}}`,

	"profile": `{{define "content"}}
<h1>{{with .Data.Profile}}{{.DisplayName}}{{end}}</h1>
{{range .Data.Sections}}
<section class="profile-section" id="section-{{.Section.Name}}">
  <h2>{{.Section.Title}}</h2>
  {{if .Message}}<p class="error" role="alert">{{.Message}}</p>{{end}}
  {{if .Editing}}
  <form method="post" action="/profile/sections/{{.Section.Name}}" class="stacked">
    {{$draft := .Draft}}
    {{range .Section.Fields}}
      {{if eq .Kind "list"}}
      <label>{{.Label}} <textarea name="{{.Name}}" rows="4">{{formText (index $draft .Name)}}</textarea></label>
      {{else if eq .Kind "object"}}
      <fieldset><legend>{{.Label}}</legend>
        {{$field := .}}
        {{range .Keys}}<label>{{.}} <input name="{{$field.Name}}.{{.}}" value="{{objValue (index $draft $field.Name) .}}"></label>{{end}}
      </fieldset>
      {{else}}
      <label>{{.Label}} <textarea name="{{.Name}}" rows="2">{{formText (index $draft .Name)}}</textarea></label>
      {{end}}
    {{end}}
    <button type="submit"{{if .Saving}} disabled{{end}}>Save</button>
  </form>
  <form method="post" action="/profile/sections/{{.Section.Name}}/cancel" class="inline">
    <button type="submit"{{if .Saving}} disabled{{end}}>Cancel</button>
  </form>
  {{else}}
  <dl>
    {{$saved := .Saved}}
    {{range .Section.Fields}}<dt>{{.Label}}</dt><dd>{{display (index $saved .Name)}}</dd>{{end}}
  </dl>
  <form method="post" action="/profile/sections/{{.Section.Name}}/edit" class="inline">
    <button type="submit">Edit</button>
  </form>
  {{end}}
</section>
{{end}}
<section class="public-profile">
  {{if .Data.PublicProfiles}}
  <p>Public profiles: {{range .Data.PublicProfiles}}<code>{{.}}</code> {{end}}</p>
  {{end}}
  <form method="post" action="/profile/public"><button type="submit">Create public profile</button></form>
</section>{{end}}`,

	"orders": `{{define "content"}}
<h1>Orders</h1>
{{if .Data}}
<table>
  <thead><tr><th>Date</th><th>Tier</th><th>Amount</th><th>Status</th></tr></thead>
  <tbody>
  {{range .Data}}<tr><td>{{.CreatedAt.Format "2 Jan 2006"}}</td><td>{{.Tier}}</td><td>{{.Currency}} {{.Amount.StringFixed 2}}</td><td>{{.Status}}</td></tr>{{end}}
  </tbody>
</table>
{{else}}<p>No orders yet.</p>{{end}}{{end}}`,

	"jobs": `{{define "content"}}
<h1>My listings</h1>
<form method="get" action="/jobs" class="filters">
  <input name="title" placeholder="Title" value="{{.Data.Filter.Title}}">
  <input name="location" placeholder="Location" value="{{.Data.Filter.Location}}">
  <input name="type" placeholder="Type" value="{{.Data.Filter.Type}}">
  <input name="max_rate" placeholder="Max rate" value="{{.Data.Filter.MaxRateString}}">
  <button type="submit">Filter</button>
</form>
{{template "listings" .Data.Listings}}
{{template "pager" .Data.Pager}}
<h2>Add a listing</h2>
<form method="post" action="/jobs" class="stacked">
  <label>Title <input name="title" required></label>
  <label>Type <input name="type"></label>
  <label>Location <input name="location"></label>
  <label>Pay <input name="pay" placeholder="e.g. 14.50"></label>
  <label>Company <input name="company"></label>
  <label>Start date <input type="date" name="start_date"></label>
  <label>End date <input type="date" name="end_date"></label>
  <label>Description <textarea name="description" rows="3"></textarea></label>
  <button type="submit">Add</button>
</form>{{end}}`,

	"board": `{{define "content"}}
<h1>Job board</h1>
{{template "listings" .Data.Listings}}
{{template "pager" .Data.Pager}}{{end}}`,

	"favorites": `{{define "content"}}
<h1>Favorites</h1>
{{if .Data}}
<ul class="favorites">
  {{range .Data}}
  <li>{{.DisplayName}} <small>{{.RoleID}}</small>
    <form method="post" action="/favorites/{{.UserID}}/delete" class="inline"><button type="submit">Remove</button></form>
  </li>
  {{end}}
</ul>
{{else}}<p>You have not favorited anyone yet.</p>{{end}}{{end}}`,
}

// partialTemplates are shared by several pages.
const partialTemplates = `{{define "listings"}}
{{if .}}
<ul class="listings">
  {{range .}}
  <li class="listing">
    <h3>{{if .URL}}<a href="{{.URL}}" rel="noopener">{{.Title}}</a>{{else}}{{.Title}}{{end}}</h3>
    <p>{{.Company}} {{.Location}} {{.Type}}</p>
    {{if .Pay}}<p class="pay">{{.Pay}}</p>{{end}}
    {{if .StartDate}}<p>{{.StartDate}}{{if .EndDate}} to {{.EndDate}}{{end}}</p>{{end}}
    {{if eq .Source "local"}}<form method="post" action="/jobs/{{.ID}}/delete" class="inline"><button type="submit">Delete</button></form>{{end}}
  </li>
  {{end}}
</ul>
{{else}}<p>No listings match.</p>{{end}}
{{end}}
{{define "pager"}}
<nav class="pager">
  {{if .HasPrev}}<a href="?{{.Query .PrevPage}}">Previous</a>{{end}}
  <span>Page {{.Page}} of {{.LastPage}}</span>
  {{if .HasNext}}<a href="?{{.Query .NextPage}}">Next</a>{{end}}
</nav>
{{end}}`

// styleCSS is served at /static/style.css.
const styleCSS = `:root {
  --bg: #ffffff;
  --text: #1f2933;
  --muted: #7b8794;
  --border: #e4e7eb;
  --accent: #1f4e79;
  --error: #b42318;
}
body { margin: 0; font-family: system-ui, sans-serif; color: var(--text); background: var(--bg); }
.site-header { display: flex; justify-content: space-between; align-items: center; padding: 1rem 2rem; border-bottom: 1px solid var(--border); }
.site-header nav a { margin-left: 1rem; color: var(--accent); text-decoration: none; }
.content { max-width: 960px; margin: 0 auto; padding: 2rem; }
.site-footer { text-align: center; padding: 2rem; color: var(--muted); }
.site-footer a { margin: 0 .5rem; color: var(--muted); }
.inline { display: inline; }
.stacked label { display: block; margin-bottom: .75rem; }
.stacked input, .stacked textarea { display: block; width: 100%; }
.error { color: var(--error); }
.flash { color: var(--accent); }
.tiers { display: grid; grid-template-columns: repeat(3, 1fr); gap: 1rem; }
.tier { border: 1px solid var(--border); border-radius: 6px; padding: 1rem; }
.tier-matrix { width: 100%; margin-top: 2rem; border-collapse: collapse; }
.tier-matrix td, .tier-matrix th { border-bottom: 1px solid var(--border); padding: .5rem; }
.listing { border-bottom: 1px solid var(--border); padding: .75rem 0; list-style: none; }
.pager { display: flex; gap: 1rem; justify-content: center; margin-top: 1rem; }
.popup { max-width: 360px; margin: 2rem auto; padding: 1.5rem; border: 1px solid var(--border); border-radius: 8px; }
.chat-widget { position: fixed; right: 1rem; bottom: 1rem; width: 300px; background: var(--bg); border: 1px solid var(--border); border-radius: 8px; padding: .5rem; }
.chat-log { max-height: 240px; overflow-y: auto; font-size: .9rem; }
`

// chatJS drives the chat widget over /ws/chat.
const chatJS = `(function() {
  var log = document.getElementById('chat-log');
  var form = document.getElementById('chat-form');
  var input = document.getElementById('chat-input');
  var sessionID = '';
  var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
  var ws = new WebSocket(proto + location.host + '/ws/chat');

  function append(who, text) {
    var p = document.createElement('p');
    p.className = 'chat-' + who;
    p.textContent = text;
    log.appendChild(p);
    log.scrollTop = log.scrollHeight;
  }

  ws.onmessage = function(ev) {
    var msg = JSON.parse(ev.data);
    if (msg.session_id) sessionID = msg.session_id;
    append(msg.type === 'error' ? 'error' : 'assistant', msg.content);
  };

  form.addEventListener('submit', function(e) {
    e.preventDefault();
    var text = input.value.trim();
    if (!text) return;
    append('visitor', text);
    ws.send(JSON.stringify({type: 'message', session_id: sessionID, content: text}));
    input.value = '';
  });
})();
`
