// Package dashboard serves the HTML pages seen by a user in their browser: a home page
// with a login link, and a dashboard that's only shown to logged-in users.
package dashboard
