// internal/searchpage/integration_test.go
package searchpage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/searchprobe/internal/browser"
	"github.com/xkilldash9x/searchprobe/internal/browser/browsertest"
	"github.com/xkilldash9x/searchprobe/internal/config"
)

const shadowFixture = `<!DOCTYPE html>
<html><body>
<div role="alertdialog" id="consent"><p>We use cookies</p><button onclick="document.getElementById('consent').remove()">Accept all</button></div>
<md-stock-search-list></md-stock-search-list>
<div id="detail"></div>
<script>
const listings = ['Bank of Valletta', 'Maltacom plc', 'Medserv'];
customElements.define('md-stock-search-list', class extends HTMLElement {
  constructor() {
    super();
    const root = this.attachShadow({ mode: 'open' });
    root.innerHTML = '<input placeholder="Enter name"><button type="submit">Search</button><div class="results"></div>';
    let term = '';
    root.querySelector('input').addEventListener('input', (e) => { term = e.target.value; });
    root.querySelector('button[type=submit]').addEventListener('click', () => {
      const out = root.querySelector('.results');
      out.innerHTML = '';
      setTimeout(() => {
        const hits = listings.filter((n) => term && n.toLowerCase().includes(term.toLowerCase()));
        out.innerHTML = hits.length
          ? hits.map((n) => '<div class="search-result-item"><span>' + n + '</span> <button>More information</button></div>').join('')
          : '<div class="no-results">No results</div>';
        out.querySelectorAll('.search-result-item').forEach((item) => item.querySelector('button').addEventListener('click', () => {
          document.getElementById('detail').textContent = 'You are not authorized to view ' + item.querySelector('span').textContent;
        }));
      }, 150);
    });
  }
});
</script>
</body></html>`

const plainFixture = `<!DOCTYPE html>
<html><body>
<input id="q" placeholder="Enter name, ISIN or symbol">
<div id="results"></div>
<div id="detail"></div>
<script>
const listings = ['Bank of Valletta', 'Maltacom plc'];
document.getElementById('q').addEventListener('keydown', (e) => {
  if (e.key !== 'Enter') return;
  const term = e.target.value.toLowerCase();
  const out = document.getElementById('results');
  out.innerHTML = '';
  setTimeout(() => {
    const hits = listings.filter((n) => n.toLowerCase().includes(term));
    if (!hits.length) {
      out.innerHTML = '<p class="no-results">No results</p>';
      return;
    }
    const table = document.createElement('table');
    table.innerHTML = '<tr><th>Name</th><th></th></tr>' +
      hits.map((n) => '<tr><td>' + n + '</td><td><button>More information</button></td></tr>').join('');
    table.querySelectorAll('button').forEach((b, i) => b.addEventListener('click', () => {
      document.getElementById('detail').textContent = 'Details for ' + hits[i];
    }));
    out.appendChild(table);
  }, 150);
});
</script>
</body></html>`

func integrationConfig() config.SearchConfig {
	cfg := config.DefaultSearchConfig()
	cfg.Overlay.DialogWait = 500 * time.Millisecond
	cfg.Overlay.PollTimeout = 500 * time.Millisecond
	cfg.SettleDelay = 200 * time.Millisecond
	return cfg
}

func TestIntegration_EncapsulatedSurface(t *testing.T) {
	f := browsertest.Start(t)
	server := browsertest.ServeHTML(t, shadowFixture)
	ctx := f.Ctx
	sp := New(f.Session, integrationConfig(), f.Logger)

	require.NoError(t, sp.Navigate(ctx, server.URL))
	consent, err := f.Session.Count(ctx, browser.CSS("#consent"))
	require.NoError(t, err)
	assert.Zero(t, consent, "consent overlay should be dismissed")

	h := sp.ResolveSearchHandle(ctx)
	require.Equal(t, KindEncapsulated, h.Kind())
	assert.Equal(t, componentTag, h.Target())

	require.NoError(t, sp.Search(ctx, "Maltacom"))
	assert.Equal(t, 1, sp.CountResults(ctx), "the component only reacts to input events")
	assert.False(t, sp.IsEmpty(ctx))

	require.NoError(t, sp.SelectResult(ctx, "Maltacom"))
	detail, err := f.Session.Text(ctx, browser.CSS("#detail"), 0)
	require.NoError(t, err)
	assert.Equal(t, "You are not authorized to view Maltacom plc", detail)

	require.NoError(t, sp.Search(ctx, "NON_EXISTENT_1"))
	assert.Equal(t, ExplicitEmpty, sp.AwaitOutcome(ctx, sp.ResolveSearchHandle(ctx)))
	assert.True(t, sp.IsEmpty(ctx))
	assert.Zero(t, sp.CountResults(ctx))
}

func TestIntegration_PlainSurface(t *testing.T) {
	f := browsertest.Start(t)
	server := browsertest.ServeHTML(t, plainFixture)
	ctx := f.Ctx
	sp := New(f.Session, integrationConfig(), f.Logger)

	require.NoError(t, sp.Navigate(ctx, server.URL))
	assert.Equal(t, PlainHandle{Selector: nameInput}, sp.ResolveSearchHandle(ctx))

	require.NoError(t, sp.Search(ctx, "Maltacom"))
	assert.Equal(t, 1, sp.CountResults(ctx))
	assert.False(t, sp.IsEmpty(ctx))

	require.NoError(t, sp.SelectResult(ctx, "Maltacom"))
	detail, err := f.Session.Text(ctx, browser.CSS("#detail"), 0)
	require.NoError(t, err)
	assert.Equal(t, "Details for Maltacom plc", detail)

	require.NoError(t, sp.Search(ctx, "NON_EXISTENT_2"))
	assert.True(t, sp.IsEmpty(ctx))
	assert.Zero(t, sp.CountResults(ctx))
}
