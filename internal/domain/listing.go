package domain

// RawRecord is an untyped JSON object captured from the target page.
// Its shape is not known ahead of time.
type RawRecord = map[string]any

// Listing is one open internship posting as written to the listings CSV.
type Listing struct {
	Company  string
	Title    string
	Category string
	URL      string
}

// Row returns the CSV column values in header order.
func (l Listing) Row() []string {
	return []string{l.Company, l.Title, l.Category, l.URL}
}
