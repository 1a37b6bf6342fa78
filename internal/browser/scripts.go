// internal/browser/scripts.go
package browser

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// refAttr tags an element so native chromedp actions can address it by selector.
const refAttr = "data-searchprobe-ref"

// domLib is prepended to every in-page script. resolve mirrors Query's matching rules.
const domLib = `
const visible = (el) => {
  if (!el || !el.getBoundingClientRect) return false;
  const r = el.getBoundingClientRect();
  if (r.width <= 0 || r.height <= 0) return false;
  const s = window.getComputedStyle(el);
  return s.display !== 'none' && s.visibility !== 'hidden' && s.opacity !== '0';
};
const textOf = (el) => (el.innerText || el.textContent || '');
const resolve = (root, q) => {
  let scopes = [root];
  if (q.parent) {
    const parents = resolve(root, q.parent);
    scopes = q.parentNth < 0 ? parents : parents.slice(q.parentNth, q.parentNth + 1);
  }
  let out = [];
  for (const s of scopes) {
    for (const el of s.querySelectorAll(q.css)) {
      if (!out.includes(el)) out.push(el);
    }
  }
  if (q.hasText) {
    const needle = q.foldCase ? q.hasText.toLowerCase() : q.hasText;
    out = out.filter((el) => (q.foldCase ? textOf(el).toLowerCase() : textOf(el)).includes(needle));
  }
  if (q.deepest) out = out.filter((el) => !out.some((o) => o !== el && el.contains(o)));
  if (q.visibleOnly) out = out.filter(visible);
  return out;
};
`

const (
	countFn   = `(q) => resolve(document, q).length`
	visibleFn = `(q, nth) => visible(resolve(document, q)[nth])`
	textFn    = `(q, nth) => { const el = resolve(document, q)[nth]; return el ? textOf(el) : null; }`
	tagFn     = `(q, nth, attr, token) => {
  const el = resolve(document, q)[nth];
  if (!el) return false;
  el.setAttribute(attr, token);
  return true;
}`
	untagFn = `(attr, token) => {
  for (const el of document.querySelectorAll('[' + attr + '="' + token + '"]')) el.removeAttribute(attr);
  return true;
}`
	jsClickFn = `(q, nth) => {
  const el = resolve(document, q)[nth];
  if (!el) return false;
  el.click();
  return true;
}`
	waitFn = `(q, state) => {
  const els = resolve(document, q);
  return state === 'visible' ? els.some(visible) : els.length > 0;
}`
	shadowRootFn = `(css) => {
  const host = document.querySelector(css);
  return host && host.shadowRoot ? host.shadowRoot : null;
}`

	// Root functions receive the shadow root as their first argument.
	rootCountFn = `(root, css) => root.querySelectorAll(css).length`
	rootTextsFn = `(root, css, visibleOnly) => Array.from(root.querySelectorAll(css))
  .filter((el) => !visibleOnly || visible(el))
  .map(textOf)`
	rootSetValueFn = `(root, css, value) => {
  const el = root.querySelector(css);
  if (!el) return false;
  el.value = value;
  el.dispatchEvent(new Event('input', { bubbles: true }));
  return true;
}`
	rootClickFn = `(root, css) => {
  const el = root.querySelector(css);
  if (!el) return false;
  el.click();
  return true;
}`
	rootClickInFn = `(root, itemCSS, contains, actionCSS) => {
  const item = Array.from(root.querySelectorAll(itemCSS)).find((el) => textOf(el).includes(contains));
  if (!item) return false;
  const action = item.querySelector(actionCSS);
  if (!action) return false;
  action.click();
  return true;
}`
)

// jsonEncode renders v as a JavaScript literal.
func jsonEncode(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// pageScript builds an expression applying fn to args, with domLib in scope.
func pageScript(fn string, args ...interface{}) string {
	return fmt.Sprintf("(() => {%s\nreturn (%s)(%s);\n})()", domLib, fn, encodeArgs(args))
}

// rootFunction builds a function declaration for Runtime.callFunctionOn whose
// receiver is passed to fn as its first argument.
func rootFunction(fn string, args ...interface{}) string {
	rest := encodeArgs(args)
	if rest != "" {
		rest = ", " + rest
	}
	return fmt.Sprintf("function() {%s\nreturn (%s)(this%s);\n}", domLib, fn, rest)
}

func encodeArgs(args []interface{}) string {
	encoded := make([]string, len(args))
	for i, a := range args {
		encoded[i] = jsonEncode(a)
	}
	return strings.Join(encoded, ", ")
}

// decodeValue unmarshals a by-value script result. An empty or null result
// leaves out untouched.
func decodeValue(raw []byte, out interface{}) error {
	if out == nil || len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode script result: %w", err)
	}
	return nil
}
