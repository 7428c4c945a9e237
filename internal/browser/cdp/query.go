// File: internal/browser/cdp/query.go
package cdp

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xkilldash9x/farescout-cli/internal/browser"
)

// tagAttribute marks elements handed out as Element handles. The attribute
// value is unique per discovery pass, so a handle keeps addressing the same
// node even when the DOM shifts around it.
const tagAttribute = "data-farescout-id"

// query is the JSON form of a browser.Selector, consumed by the in-page
// matcher script.
type query struct {
	Kind  string     `json:"kind"`
	CSS   string     `json:"css,omitempty"`
	Role  string     `json:"role,omitempty"`
	Name  *jsPattern `json:"name,omitempty"`
	Scope string     `json:"scope,omitempty"`
}

// jsPattern carries a regular expression across the CDP boundary. Patterns
// must keep to the syntax RE2 and ECMAScript share; only leading inline
// flags such as (?i) are translated.
type jsPattern struct {
	Source string `json:"source"`
	Flags  string `json:"flags"`
}

// compileQuery translates an engine-neutral selector into its in-page form.
func compileQuery(sel browser.Selector) (query, error) {
	if sel.IsZero() {
		return query{}, fmt.Errorf("cdp: empty selector")
	}

	q := query{Scope: sel.Scope}
	switch {
	case sel.CSS != "":
		q.Kind = "css"
		q.CSS = sel.CSS
	case sel.Role != "":
		q.Kind = "role"
		q.Role = strings.ToLower(sel.Role)
		q.Name = patternToJS(sel.Name)
	default:
		q.Kind = "text"
		q.Name = patternToJS(sel.Name)
	}
	return q, nil
}

var leadingInlineFlags = regexp.MustCompile(`^\(\?([ims]+)\)`)

// patternToJS rewrites a Go pattern for the page's RegExp constructor. RE2
// inline flag groups do not exist in ECMAScript, so a leading (?i), (?is) or
// similar becomes RegExp flags instead.
func patternToJS(re *regexp.Regexp) *jsPattern {
	if re == nil {
		return nil
	}
	source := re.String()
	flags := ""
	if m := leadingInlineFlags.FindStringSubmatch(source); m != nil {
		flags = m[1]
		source = source[len(m[0]):]
	}
	return &jsPattern{Source: source, Flags: flags}
}

// jsonEncode renders a value as a JavaScript literal, escaping it for safe
// embedding in a script.
func jsonEncode(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// matcherJS is the shared in-page library: visibility, ARIA role and
// accessible-name approximations, and the selector matcher. Every operation
// script embeds it inside its own IIFE so nothing leaks into the page.
const matcherJS = `
	const __fsVisible = (el) => {
		if (!(el instanceof Element)) return false;
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		return rect.width > 0 && rect.height > 0 && style.display !== 'none' &&
			style.visibility !== 'hidden' && style.opacity !== '0';
	};

	const __fsRole = (el) => {
		const explicit = el.getAttribute('role');
		if (explicit) return explicit.trim().toLowerCase();
		const tag = el.tagName.toLowerCase();
		if (tag === 'a') return el.hasAttribute('href') ? 'link' : '';
		if (tag === 'input') {
			const type = (el.getAttribute('type') || 'text').toLowerCase();
			if (type === 'submit' || type === 'reset' || type === 'button' || type === 'image') return 'button';
			if (type === 'checkbox' || type === 'radio') return type;
			if (type === 'search') return 'searchbox';
			if (type === 'hidden') return '';
			return 'textbox';
		}
		const implicit = {
			button: 'button', select: 'combobox', textarea: 'textbox', dialog: 'dialog',
			nav: 'navigation', main: 'main', form: 'form', table: 'table',
			ul: 'list', ol: 'list', li: 'listitem', img: 'img', option: 'option',
			h1: 'heading', h2: 'heading', h3: 'heading', h4: 'heading', h5: 'heading', h6: 'heading'
		};
		return implicit[tag] || '';
	};

	const __fsName = (el) => {
		const aria = el.getAttribute('aria-label');
		if (aria && aria.trim()) return aria.trim();
		const refs = el.getAttribute('aria-labelledby');
		if (refs) {
			const joined = refs.split(/\s+/)
				.map((id) => { const n = document.getElementById(id); return n ? n.innerText : ''; })
				.join(' ').trim();
			if (joined) return joined;
		}
		if (el.tagName === 'INPUT' && el.value) {
			const type = (el.getAttribute('type') || '').toLowerCase();
			if (type === 'submit' || type === 'reset' || type === 'button') return el.value.trim();
		}
		const text = (el.innerText || '').trim();
		if (text) return text;
		return (el.getAttribute('title') || '').trim();
	};

	const __fsMatch = (q) => {
		const roots = q.scope ? Array.from(document.querySelectorAll(q.scope)) : [document];
		const pattern = q.name ? new RegExp(q.name.source, q.name.flags) : null;
		const seen = new Set();
		const out = [];
		const push = (el) => { if (!seen.has(el)) { seen.add(el); out.push(el); } };
		for (const root of roots) {
			if (q.kind === 'css') {
				for (const el of root.querySelectorAll(q.css)) push(el);
				continue;
			}
			const all = root.querySelectorAll('*');
			if (q.kind === 'role') {
				for (const el of all) {
					if (__fsRole(el) !== q.role) continue;
					if (pattern && !pattern.test(__fsName(el))) continue;
					push(el);
				}
				continue;
			}
			// Text match: keep the deepest visible elements so a click lands
			// on the control, not an ancestor container.
			const hits = [];
			for (const el of all) {
				if (!__fsVisible(el)) continue;
				if (pattern.test((el.innerText || '').trim())) hits.push(el);
			}
			for (const el of hits) {
				if (!hits.some((other) => other !== el && el.contains(other))) push(el);
			}
		}
		return out;
	};
`

// visibleScript reports whether any match is currently visible.
func visibleScript(q query) string {
	return fmt.Sprintf(`(() => {
		%s
		return __fsMatch(%s).some(__fsVisible);
	})()`, matcherJS, jsonEncode(q))
}

// clickPointScript scrolls the first visible match into view and returns its
// viewport centre, or null when nothing clickable matches.
func clickPointScript(q query) string {
	return fmt.Sprintf(`(() => {
		%s
		const el = __fsMatch(%s).find(__fsVisible);
		if (!el) return null;
		el.scrollIntoView({block: 'center', inline: 'center'});
		const rect = el.getBoundingClientRect();
		return {x: rect.left + rect.width / 2, y: rect.top + rect.height / 2};
	})()`, matcherJS, jsonEncode(q))
}

// focusAndClearScript focuses the first visible match and empties its value
// so subsequent key events type into a clean field.
func focusAndClearScript(q query) string {
	return fmt.Sprintf(`(() => {
		%s
		const el = __fsMatch(%s).find(__fsVisible);
		if (!el) return false;
		el.scrollIntoView({block: 'center', inline: 'center'});
		el.focus();
		if ('value' in el) {
			el.value = '';
			el.dispatchEvent(new Event('input', {bubbles: true}));
		}
		return true;
	})()`, matcherJS, jsonEncode(q))
}

// collectScript tags every visible match and returns the tag values in
// document order. Already-tagged elements keep their tag, so repeated
// discovery over a stable DOM yields stable handles.
func collectScript(q query, nonce string) string {
	return fmt.Sprintf(`(() => {
		%s
		const ids = [];
		let n = 0;
		for (const el of __fsMatch(%s)) {
			if (!__fsVisible(el)) continue;
			let id = el.getAttribute(%q);
			if (!id) {
				id = %s + '-' + (n++);
				el.setAttribute(%q, id);
			}
			ids.push(id);
		}
		return ids;
	})()`, matcherJS, jsonEncode(q), tagAttribute, jsonEncode(nonce), tagAttribute)
}

// elementTextScript reads the visible text of a tagged element, or null when
// the handle has gone stale.
func elementTextScript(id string) string {
	return fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return null;
		return el.innerText || '';
	})()`, jsonEncode(tagSelector(id)))
}

// elementHTMLScript reads the outer HTML of a tagged element.
func elementHTMLScript(id string) string {
	return fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return null;
		return el.outerHTML;
	})()`, jsonEncode(tagSelector(id)))
}

// tagSelector addresses a previously tagged element.
func tagSelector(id string) string {
	return fmt.Sprintf(`[%s=%q]`, tagAttribute, id)
}
