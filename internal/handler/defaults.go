package handler

// Names are the three reference job_types this repository ships.
const (
	TypeSleep     = "sleep"
	TypeWordCount = "word_count"
	TypeThumbnail = "thumbnail"
)

// RegisterDefaults wires the three reference handlers into r. Extending
// the registry with a new job_type is exactly this: one more Register
// call at process init.
func RegisterDefaults(r *Registry) {
	r.Register(TypeSleep, Sleep)
	r.Register(TypeWordCount, WordCount)
	r.Register(TypeThumbnail, Thumbnail)
}
