package usecase

import "fmt"

// Site-pattern result scrapers. Each returns an array of plain objects or an
// empty array; selectors are brittle by nature and revised as sites change.

// searchResultsScript targets search engines that annotate result blocks with
// a result test id (DuckDuckGo style).
func searchResultsScript() string {
	return `(() => {
		const out = [];
		const blocks = document.querySelectorAll('[data-testid="result"]');
		for (const block of blocks) {
			try {
				const titleLink = block.querySelector('h2 a, .result__title a, a[data-testid="result-title-a"]');
				if (!titleLink) continue;
				let link = titleLink.getAttribute('href') || '';
				if (link.startsWith('/')) {
					link = location.origin + link;
				}
				const snippetEl = block.querySelector('.result__snippet, .result__body, [data-result="snippet"]');
				out.push({
					title: titleLink.innerText || '',
					snippet: snippetEl ? snippetEl.innerText : '',
					link: link,
					type: 'search_result'
				});
			} catch (e) {
				continue;
			}
		}
		return out;
	})()`
}

// engineResultsScript targets the classic result-block markup used by the
// dominant search engine.
func engineResultsScript() string {
	return `(() => {
		const out = [];
		const blocks = document.querySelectorAll('.g');
		for (const block of blocks) {
			try {
				const titleLink = block.querySelector('a h3') ? block.querySelector('a') : block.querySelector('.yuRUbf a');
				if (!titleLink) continue;
				const heading = block.querySelector('h3');
				const snippetEl = block.querySelector('.VwiC3b, .s3v9rd, .IsZvec');
				out.push({
					title: heading ? heading.innerText : (titleLink.innerText || ''),
					snippet: snippetEl ? snippetEl.innerText : '',
					link: titleLink.getAttribute('href') || '',
					type: 'search_result'
				});
			} catch (e) {
				continue;
			}
		}
		return out;
	})()`
}

// productListingScript targets marketplace search-result items carrying
// title, price and rating.
func productListingScript(limit int) string {
	return fmt.Sprintf(`(() => {
		const out = [];
		const blocks = document.querySelectorAll('[data-component-type="s-search-result"]');
		for (const block of blocks) {
			if (out.length >= %d) break;
			try {
				const titleLink = block.querySelector('h2 a');
				if (!titleLink) continue;
				let link = titleLink.getAttribute('href') || '';
				if (link.startsWith('/')) {
					link = location.origin + link;
				}
				const priceEl = block.querySelector('.a-price-whole, .a-price .a-offscreen');
				const ratingEl = block.querySelector('.a-icon-alt');
				out.push({
					title: titleLink.innerText || '',
					price: priceEl ? priceEl.innerText : '',
					rating: ratingEl ? ratingEl.innerText : '',
					link: link,
					type: 'product'
				});
			} catch (e) {
				continue;
			}
		}
		return out;
	})()`, limit)
}

// offsiteLinksScript collects links leaving the current domain, the generic
// shape of a result list on an unknown site.
func offsiteLinksScript(limit int) string {
	return fmt.Sprintf(`(() => {
		const out = [];
		const anchors = document.querySelectorAll('a[href^="http"]');
		for (const anchor of anchors) {
			if (out.length >= %d) break;
			try {
				const href = anchor.getAttribute('href') || '';
				if (href.includes(location.hostname)) continue;
				const text = (anchor.innerText || '').trim();
				if (text.length <= 3 || text.length >= 100) continue;
				out.push({
					title: text,
					link: href,
					type: 'search_result'
				});
			} catch (e) {
				continue;
			}
		}
		return out;
	})()`, limit)
}
