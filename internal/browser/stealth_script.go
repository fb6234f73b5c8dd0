package browser

// stealthScript masks the most common automation fingerprints before any page
// script runs. Live sites change detection tactics; this only covers the
// basics (webdriver flag, empty plugin list, missing chrome object).
func stealthScript() string {
	return `
		Object.defineProperty(navigator, 'webdriver', {
			get: () => undefined,
		});
		Object.defineProperty(navigator, 'plugins', {
			get: () => [1, 2, 3, 4, 5],
		});
		Object.defineProperty(navigator, 'languages', {
			get: () => ['en-US', 'en'],
		});
		window.chrome = {
			runtime: {},
		};
	`
}
