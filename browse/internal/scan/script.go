package scan

// Script returns the in-page program that enumerates visible,
// interactive-looking elements directly from the rendered DOM, bypassing the
// accessibility tree. It reports raw candidates; ordering and text filtering
// happen on the Go side so the rules stay testable.
func Script() string {
	return `() => {
		const out = [];
		const tags = ['button', 'input', 'a', 'label', 'h1', 'h2', 'h3', 'h4', 'h5', 'h6', 'span', 'div', 'p'];
		const roleSel = '[role="button"],[role="link"],[role="heading"],[role="text"]';
		const textInputs = ['text', 'search', 'email', 'password', 'url', 'tel', 'number', ''];

		const seen = new Set();
		const els = [];
		for (const t of tags) {
			for (const el of document.getElementsByTagName(t)) {
				if (!seen.has(el)) { seen.add(el); els.push(el); }
			}
		}
		for (const el of document.querySelectorAll(roleSel)) {
			if (!seen.has(el)) { seen.add(el); els.push(el); }
		}

		const cssPath = (el) => {
			if (el.id && /^[A-Za-z][\w-]*$/.test(el.id)) return '#' + el.id;
			const parts = [];
			let node = el;
			while (node && node.nodeType === 1 && node !== document.body) {
				const tag = node.tagName.toLowerCase();
				const parent = node.parentElement;
				if (!parent) { parts.unshift(tag); break; }
				if (node.id && /^[A-Za-z][\w-]*$/.test(node.id)) {
					parts.unshift('#' + node.id);
					break;
				}
				const idx = Array.prototype.indexOf.call(parent.children, node);
				parts.unshift(tag + ':nth-child(' + (idx + 1) + ')');
				node = parent;
			}
			return parts.join(' > ');
		};

		const directText = (el) => {
			let t = '';
			for (const n of el.childNodes) {
				if (n.nodeType === 3) t += n.textContent;
			}
			return t;
		};

		for (const el of els) {
			const rect = el.getBoundingClientRect();
			if (rect.width <= 0 || rect.height <= 0) continue;
			const style = window.getComputedStyle(el);
			if (style.display === 'none' || style.visibility === 'hidden') continue;

			const tag = el.tagName.toLowerCase();
			const aria = el.getAttribute('role') || '';

			let role, text;
			if (tag === 'input') {
				if (!textInputs.includes((el.type || '').toLowerCase())) continue;
				role = 'textbox';
				text = el.placeholder || el.value || '';
			} else if (tag === 'button' || aria === 'button') {
				role = 'button';
				text = (el.innerText || el.textContent || '').trim();
			} else if (tag === 'a' || aria === 'link') {
				role = 'link';
				text = (el.innerText || el.textContent || '').trim();
			} else if (/^h[1-6]$/.test(tag) || aria === 'heading') {
				role = 'heading';
				text = (el.innerText || el.textContent || '').trim();
			} else if (tag === 'label') {
				role = 'label';
				text = (el.innerText || el.textContent || '').trim();
			} else {
				role = 'text';
				text = directText(el).trim();
			}

			out.push({
				role: role,
				text: text,
				selector: cssPath(el),
				x: rect.left,
				y: rect.top,
				width: rect.width,
				height: rect.height
			});
		}
		return out;
	}`
}
