package cookie

import (
	"net/http"
	"sync"
)

// Jar is the request-scoped cookie accessor the session store works through.
type Jar interface {
	Cookie(name string) (*http.Cookie, error)
	SetCookie(c *http.Cookie) error
}

// Committer is implemented by response writers that know whether headers were sent.
type Committer interface {
	Committed() bool
}

// ResponseJar reads cookies from a request and sets them on a response.
type ResponseJar struct {
	w http.ResponseWriter
	r *http.Request
}

// NewResponseJar returns a jar bound to one request/response pair. Wrap w with Track
// first if commit detection is wanted and w does not implement Committer itself.
func NewResponseJar(w http.ResponseWriter, r *http.Request) *ResponseJar {
	return &ResponseJar{w: w, r: r}
}

// Cookie returns the named request cookie or http.ErrNoCookie.
func (j *ResponseJar) Cookie(name string) (*http.Cookie, error) {
	if j == nil || j.r == nil {
		return nil, http.ErrNoCookie
	}
	return j.r.Cookie(name)
}

// SetCookie adds a Set-Cookie header, or returns ErrResponseCommitted when the
// headers have already been written.
func (j *ResponseJar) SetCookie(c *http.Cookie) error {
	if j == nil || j.w == nil {
		return ErrResponseCommitted
	}
	if cm, ok := j.w.(Committer); ok && cm.Committed() {
		return ErrResponseCommitted
	}
	http.SetCookie(j.w, c)
	return nil
}

// MemoryJar is an in-process Jar. Cookies it sets become visible to later reads, the way
// a browser would replay them. Safe for concurrent use.
type MemoryJar struct {
	mu        sync.Mutex
	cookies   map[string]*http.Cookie
	committed bool
	history   []*http.Cookie
}

// NewMemoryJar returns an empty jar, optionally seeded with cookies.
func NewMemoryJar(seed ...*http.Cookie) *MemoryJar {
	j := &MemoryJar{cookies: make(map[string]*http.Cookie, len(seed))}
	for _, c := range seed {
		cp := *c
		j.cookies[c.Name] = &cp
	}
	return j
}

// Cookie returns the current value for name. Deleted cookies are not returned.
func (j *MemoryJar) Cookie(name string) (*http.Cookie, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	c, ok := j.cookies[name]
	if !ok {
		return nil, http.ErrNoCookie
	}
	cp := *c
	return &cp, nil
}

// SetCookie stores c, or deletes it when MaxAge is negative.
func (j *MemoryJar) SetCookie(c *http.Cookie) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.committed {
		return ErrResponseCommitted
	}
	cp := *c
	j.history = append(j.history, &cp)
	if c.MaxAge < 0 {
		delete(j.cookies, c.Name)
		return nil
	}
	j.cookies[c.Name] = &cp
	return nil
}

// Commit makes every later SetCookie fail with ErrResponseCommitted.
func (j *MemoryJar) Commit() {
	j.mu.Lock()
	j.committed = true
	j.mu.Unlock()
}

// Written returns copies of every cookie set on the jar, in order.
func (j *MemoryJar) Written() []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]*http.Cookie, 0, len(j.history))
	for _, c := range j.history {
		cp := *c
		out = append(out, &cp)
	}
	return out
}
