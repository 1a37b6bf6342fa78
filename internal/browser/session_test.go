// internal/browser/session_test.go
package browser

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixturePage = `<!DOCTYPE html>
<html><body>
<input id="q" placeholder="Enter name">
<div id="hidden" style="display:none">Hidden text</div>
<ul>
  <li class="item">Alpha Holdings <button>More information</button></li>
  <li class="item">Beta Group <button>More information</button></li>
</ul>
<p id="out"></p>
<div id="late"></div>
<my-host></my-host>
<iframe srcdoc="<button onclick=&quot;document.body.dataset.clicked='yes'&quot;>Accept all</button>"></iframe>
<script>
document.querySelectorAll('.item button').forEach((b, i) =>
  b.addEventListener('click', () => { document.getElementById('out').textContent = 'clicked ' + i; }));
document.getElementById('q').addEventListener('keydown', (e) => {
  if (e.key === 'Enter') document.getElementById('out').textContent = 'submitted ' + e.target.value;
});
setTimeout(() => { document.getElementById('late').innerHTML = '<span class="late">ready</span>'; }, 200);
customElements.define('my-host', class extends HTMLElement {
  constructor() {
    super();
    const r = this.attachShadow({ mode: 'open' });
    r.innerHTML = '<input><button type="submit">Go</button>' +
      '<div class="row">First Row <button>x</button></div><div class="row">Second Row <button>x</button></div>';
    r.querySelector('input').addEventListener('input', (e) => { this.dataset.seen = e.target.value; });
    r.querySelector('button[type=submit]').addEventListener('click', () => { this.dataset.submitted = 'yes'; });
    r.querySelectorAll('.row button').forEach((b, i) => b.addEventListener('click', () => { this.dataset.row = String(i); }));
  }
});
</script>
</body></html>`

func loadFixture(t *testing.T) *testFixture {
	t.Helper()
	f := newTestFixture(t)
	server := createStaticTestServer(t, fixturePage)
	require.NoError(t, f.Session.Navigate(f.Ctx, server.URL))
	return f
}

func TestSession_Queries(t *testing.T) {
	f := loadFixture(t)
	s, ctx := f.Session, f.Ctx

	n, err := s.Count(ctx, CSS(".item"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.Count(ctx, CSS("button").WithText("More information").Inside(CSS(".item").WithText("Beta"), 0))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	visible, err := s.Visible(ctx, CSS("#hidden"), 0)
	require.NoError(t, err)
	assert.False(t, visible)
	visible, err = s.Visible(ctx, CSS("#q"), 0)
	require.NoError(t, err)
	assert.True(t, visible)
	visible, err = s.Visible(ctx, CSS("#missing"), 0)
	require.NoError(t, err)
	assert.False(t, visible)

	text, err := s.Text(ctx, Text("beta group"), 0)
	require.NoError(t, err)
	assert.Contains(t, text, "Beta Group")

	n, err = s.Count(ctx, Text("addEventListener"))
	require.NoError(t, err)
	assert.Zero(t, n, "inline script source is not page text")

	_, err = s.Text(ctx, CSS(".item"), 5)
	assert.ErrorIs(t, err, ErrNoElement)

	var title string
	require.NoError(t, s.Evaluate(ctx, `Promise.resolve(document.querySelector('#q').placeholder)`, &title))
	assert.Equal(t, "Enter name", title)
}

func TestSession_Actions(t *testing.T) {
	f := loadFixture(t)
	s, ctx := f.Session, f.Ctx

	require.NoError(t, s.Click(ctx, CSS(".item button"), 1))
	out, err := s.Text(ctx, CSS("#out"), 0)
	require.NoError(t, err)
	assert.Equal(t, "clicked 1", out)

	// Tags are removed after the action.
	n, err := s.Count(ctx, CSS("["+refAttr+"]"))
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.Fill(ctx, CSS("#q"), "Maltacom"))
	require.NoError(t, s.Press(ctx, CSS("#q"), "Enter"))
	out, err = s.Text(ctx, CSS("#out"), 0)
	require.NoError(t, err)
	assert.Equal(t, "submitted Maltacom", out)

	err = s.Click(ctx, CSS("#missing"), 0)
	assert.ErrorIs(t, err, ErrNoElement)
}

func TestSession_ClickHiddenIsBounded(t *testing.T) {
	f := loadFixture(t)

	ctx, cancel := context.WithTimeout(f.Ctx, 300*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := f.Session.Click(ctx, CSS("#hidden"), 0)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSession_WaitFor(t *testing.T) {
	f := loadFixture(t)
	s := f.Session

	ctx, cancel := context.WithTimeout(f.Ctx, 3*time.Second)
	defer cancel()
	require.NoError(t, s.WaitFor(ctx, CSS(".late"), StateVisible))

	short, cancelShort := context.WithTimeout(f.Ctx, 200*time.Millisecond)
	defer cancelShort()
	err := s.WaitFor(short, CSS(".never"), StateAttached)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestSession_ShadowRoot(t *testing.T) {
	f := loadFixture(t)
	s, ctx := f.Session, f.Ctx

	missing, err := s.ShadowRoot(ctx, "no-such-element")
	require.NoError(t, err)
	assert.Nil(t, missing)

	root, err := s.ShadowRoot(ctx, "my-host")
	require.NoError(t, err)
	require.NotNil(t, root)
	assert.NotEmpty(t, root.Ref())

	n, err := root.Count(ctx, ".row")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	texts, err := root.Texts(ctx, ".row", true)
	require.NoError(t, err)
	require.Len(t, texts, 2)
	assert.Contains(t, texts[1], "Second Row")

	ok, err := root.SetValue(ctx, "input", "Acme")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = root.Click(ctx, `button[type="submit"]`)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = root.ClickIn(ctx, ".row", "Second Row", "button")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = root.ClickIn(ctx, ".row", "no such row", "button")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = root.Click(ctx, ".absent")
	require.NoError(t, err)
	assert.False(t, ok)

	seen, err := s.Count(ctx, CSS(`my-host[data-seen="Acme"][data-submitted="yes"][data-row="1"]`))
	require.NoError(t, err)
	assert.Equal(t, 1, seen)
}

func TestSession_Frames(t *testing.T) {
	f := loadFixture(t)
	s, ctx := f.Session, f.Ctx

	frames, err := s.Frames(ctx)
	require.NoError(t, err)
	require.Len(t, frames, 1)

	frame := frames[0]
	accept := CSS("button").WithText("Accept")
	n, err := frame.Count(ctx, accept)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	visible, err := frame.Visible(ctx, accept, 0)
	require.NoError(t, err)
	assert.True(t, visible)

	require.NoError(t, frame.Click(ctx, accept, 0))
	n, err = frame.Count(ctx, CSS(`body[data-clicked="yes"]`))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.ErrorIs(t, frame.Click(ctx, CSS("#missing"), 0), ErrNoElement)
}

func TestSession_CrossOriginFrame(t *testing.T) {
	f := newTestFixture(t)
	s, ctx := f.Session, f.Ctx

	widget := createStaticTestServer(t, `<button onclick="document.body.dataset.clicked='yes'">Accept all</button>`)
	// 127.0.0.1 and localhost are different sites.
	widgetURL := strings.Replace(widget.URL, "127.0.0.1", "localhost", 1)
	host := createStaticTestServer(t, `<!DOCTYPE html><html><body><iframe src="`+widgetURL+`"></iframe></body></html>`)
	require.NoError(t, s.Navigate(ctx, host.URL))

	accept := CSS("button").WithText("Accept")
	var frame Scope
	require.Eventually(t, func() bool {
		frames, err := s.Frames(ctx)
		if err != nil || len(frames) != 1 {
			return false
		}
		n, err := frames[0].Count(ctx, accept)
		if err != nil || n != 1 {
			return false
		}
		frame = frames[0]
		return true
	}, 10*time.Second, 100*time.Millisecond)

	require.NoError(t, frame.Click(ctx, accept, 0))
	n, err := frame.Count(ctx, CSS(`body[data-clicked="yes"]`))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestManager_Sessions(t *testing.T) {
	f := newTestFixture(t)
	assert.Equal(t, 1, f.Manager.ActiveSessions())

	second, err := f.Manager.NewSession(f.Ctx)
	require.NoError(t, err)
	assert.NotEqual(t, f.Session.ID(), second.ID())
	assert.Equal(t, 2, f.Manager.ActiveSessions())

	second.Close()
	assert.Equal(t, 1, f.Manager.ActiveSessions())
}
