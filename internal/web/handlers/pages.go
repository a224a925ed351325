package handlers

import (
	"fmt"
	"net/http"

	"github.com/receiptdrop/receiptdrop/internal/web/middleware"
)

// LoginPageHandler renders the login page with the consent link.
func LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<title>Reimbursement Assistant</title>
	<style>
		body { font-family: -apple-system, BlinkMacSystemFont, sans-serif; display: flex; align-items: center; justify-content: center; height: 100vh; margin: 0; background: #1a1a2e; color: #eee; }
		a { border: 2px solid #4ade80; border-radius: 8px; padding: 12px 24px; color: #4ade80; text-decoration: none; }
		a:hover { background: #4ade80; color: #1a1a2e; }
	</style>
</head>
<body>
	<a href="/auth/google/login">Login with Google</a>
</body>
</html>`)
	}
}

// IndexHandler renders the upload page: file picker, scan trigger, editable
// result fields and the save trigger.
func IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := middleware.UserFrom(r.Context())

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<title>Reimbursement Assistant</title>
	<style>
		body { font-family: -apple-system, BlinkMacSystemFont, sans-serif; max-width: 640px; margin: 40px auto; padding: 0 20px; background: #1a1a2e; color: #eee; }
		header { display: flex; justify-content: space-between; align-items: baseline; }
		label { display: block; margin-top: 12px; color: #9ca3af; }
		input { width: 100%%; padding: 8px; border-radius: 6px; border: 1px solid #374151; background: #111827; color: #eee; }
		button { margin-top: 16px; padding: 10px 20px; border: none; border-radius: 6px; background: #4ade80; color: #1a1a2e; cursor: pointer; }
		button:disabled { background: #374151; color: #9ca3af; }
		#status { margin-top: 16px; color: #fbbf24; white-space: pre-wrap; }
		a { color: #4ade80; }
	</style>
</head>
<body>
	<header>
		<h1>Reimbursement Assistant</h1>
		<span>%s · <a href="/logout">Logout</a></span>
	</header>

	<input type="file" id="pages" multiple accept="image/png,image/jpeg,image/webp,image/heic,image/heif">
	<button id="scan">Scan receipt</button>

	<label>Date <input id="date" placeholder="YYYY-MM-DD"></label>
	<label>Item <input id="item"></label>
	<label>Amount <input id="amount"></label>
	<button id="save">Save to Google Drive</button>

	<div id="status"></div>

	<script>
		const status = (msg) => document.getElementById('status').textContent = msg;
		const pageForm = () => {
			const form = new FormData();
			for (const f of document.getElementById('pages').files) form.append('pages', f);
			return form;
		};

		document.getElementById('scan').onclick = async () => {
			status('Scanning...');
			const resp = await fetch('/api/scan', { method: 'POST', body: pageForm() });
			const data = await resp.json();
			if (data.status === 'success') {
				document.getElementById('date').value = data.date || '';
				document.getElementById('item').value = data.item || '';
				document.getElementById('amount').value = data.amount || '';
				status('Scanned. Review the fields, then save.');
			} else {
				status('Scan failed: ' + (data.error || 'unknown error'));
			}
		};

		document.getElementById('save').onclick = async () => {
			status('Saving...');
			const form = pageForm();
			form.append('date', document.getElementById('date').value);
			form.append('item', document.getElementById('item').value);
			form.append('amount', document.getElementById('amount').value);
			const resp = await fetch('/api/save', { method: 'POST', body: form });
			const data = await resp.json();
			status(data.success ? 'Saved to ' + data.result.period.key : 'Save failed: ' + (data.error || 'unknown error'));
		};
	</script>
</body>
</html>`, user.Name)
	}
}
