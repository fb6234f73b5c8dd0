package analyzer

// analyzeScript inspects the live DOM in one round trip and returns the raw
// material for a PageSnapshot: interactive element descriptors plus coarse
// structural facts. Any single element that throws is skipped.
func analyzeScript() string {
	return `(() => {
		const elements = [];
		const seen = new Set();
		let linkCount = 0;
		let imageCount = 0;

		const MAX_ELEMENTS = 60;
		const MAX_LINKS = 10;
		const MAX_IMAGES = 5;

		const categories = [
			'input', 'button', 'select', 'textarea', 'a', 'img',
			'[role="button"]', '[role="link"]', '[role="textbox"]',
			'[role="searchbox"]', '[onclick]', '[data-testid]'
		];

		const generateSelector = (el) => {
			const tag = el.tagName.toLowerCase();

			const qaAttrs = ['data-test-id', 'data-testid', 'data-test', 'data-qa', 'data-cy'];
			for (const attr of qaAttrs) {
				const val = el.getAttribute(attr);
				if (val) {
					return tag + '[' + attr + '="' + val + '"]';
				}
			}

			if (el.id && /^[a-zA-Z]/.test(el.id) && !el.id.includes(' ')) {
				return '#' + el.id;
			}

			if (el.name && ['input', 'select', 'textarea', 'button'].includes(tag)) {
				return tag + '[name="' + el.name + '"]';
			}

			const ariaLabel = el.getAttribute('aria-label');
			if (ariaLabel && ariaLabel.length < 80) {
				return tag + '[aria-label="' + ariaLabel + '"]';
			}

			if (el.type && tag === 'input') {
				if (el.placeholder) {
					return 'input[type="' + el.type + '"][placeholder="' + el.placeholder + '"]';
				}
				return 'input[type="' + el.type + '"]';
			}

			if (el.className && typeof el.className === 'string') {
				const classes = el.className.split(' ')
					.filter(c => c && !c.match(/^[0-9]/) && c.length < 40)
					.slice(0, 2);
				if (classes.length > 0) {
					return tag + '.' + classes.join('.');
				}
			}

			return tag;
		};

		const describe = (el) => {
			const tag = el.tagName.toLowerCase();
			const style = window.getComputedStyle(el);
			const rect = el.getBoundingClientRect();
			const visible = rect.width > 0 && rect.height > 0 &&
				style.display !== 'none' && style.visibility !== 'hidden';

			const classes = (typeof el.className === 'string')
				? el.className.split(' ').filter(c => c).slice(0, 4)
				: [];

			return {
				tag: tag,
				type: el.type || '',
				id: el.id || '',
				classes: classes,
				placeholder: el.placeholder || '',
				text: (el.textContent || '').trim().slice(0, 200),
				ariaLabel: el.getAttribute('aria-label') || '',
				role: el.getAttribute('role') || '',
				href: (tag === 'a' && el.href) ? el.href : '',
				selector: generateSelector(el),
				visible: visible,
				enabled: !el.disabled,
				box: rect.width > 0 ? {
					x: rect.left, y: rect.top,
					width: rect.width, height: rect.height
				} : null
			};
		};

		for (const category of categories) {
			let matched = [];
			try {
				matched = document.querySelectorAll(category);
			} catch (e) {
				continue;
			}

			for (const el of matched) {
				if (elements.length >= MAX_ELEMENTS) {
					break;
				}
				if (seen.has(el)) {
					continue;
				}
				seen.add(el);

				const tag = el.tagName.toLowerCase();
				if (tag === 'a') {
					if (linkCount >= MAX_LINKS) continue;
					linkCount++;
				}
				if (tag === 'img') {
					if (imageCount >= MAX_IMAGES) continue;
					imageCount++;
				}

				try {
					elements.push(describe(el));
				} catch (e) {
					continue;
				}
			}
		}

		return {
			elements: elements,
			hasNavigation: document.querySelectorAll('nav, [role="navigation"]').length > 0,
			hasSearch: document.querySelectorAll('input[type="search"], input[placeholder*="search" i], [role="searchbox"]').length > 0,
			hasForms: document.querySelectorAll('form').length > 0,
			hasProducts: document.querySelectorAll('[data-testid*="product"], .product, [class*="product"]').length > 0
		};
	})()`
}
