package user

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"flockr/internal/pkg/errs"
	"flockr/internal/pkg/logx"
	"flockr/internal/pkg/randx"
)

const (
	minPasswordLen = 6
	maxNameLen     = 50
	minHandleLen   = 3
	maxHandleLen   = 20
)

var emailRegex = regexp.MustCompile(`^[a-z0-9]+([._]?[a-z0-9]+)*@\w+\.\w{2,3}$`)

// record is the stored form of a user; the exported User is a snapshot of it.
type record struct {
	User

	passwordHash []byte

	// sessions holds the ids of logins that have not been logged out.
	sessions map[string]struct{}
}

// Directory owns every registered user and their sessions.
type Directory struct {
	// mu protects users and the lookup indexes.
	mu sync.RWMutex

	// users is indexed by user id.
	users []*record

	byEmail  map[string]*record
	byHandle map[string]*record

	// hashCost is the bcrypt cost used for new passwords.
	hashCost int

	logger zerolog.Logger
}

// NewDirectory creates an empty Directory hashing passwords with the given bcrypt cost.
// A cost outside bcrypt's bounds falls back to bcrypt.DefaultCost.
func NewDirectory(hashCost int) *Directory {
	if hashCost < bcrypt.MinCost || hashCost > bcrypt.MaxCost {
		hashCost = bcrypt.DefaultCost
	}

	return &Directory{
		byEmail:  make(map[string]*record),
		byHandle: make(map[string]*record),
		hashCost: hashCost,
		logger:   logx.Component("Directory"),
	}
}

// Register creates a user and opens its first session.
// The first user ever registered (since the last Reset) becomes global admin.
func (d *Directory) Register(email, password, nameFirst, nameLast string) (Session, *errs.CustomError) {
	if !emailRegex.MatchString(email) {
		return Session{}, errs.NewError(errs.ErrInvalidEmail)
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return Session{}, errs.NewError(errs.ErrInvalidPassword)
	}
	if !validName(nameFirst) || !validName(nameLast) {
		return Session{}, errs.NewError(errs.ErrInvalidName)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.hashCost)
	if err != nil {
		return Session{}, errs.NewError(errs.ErrUnknown, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, taken := d.byEmail[email]; taken {
		return Session{}, errs.NewError(errs.ErrEmailTaken)
	}

	id := len(d.users)
	role := RoleMember
	if id == 0 {
		role = RoleGlobalAdmin
	}

	rec := &record{
		User: User{
			ID:        id,
			Email:     email,
			NameFirst: nameFirst,
			NameLast:  nameLast,
			Handle:    d.uniqueHandleLocked(id, nameFirst+nameLast),
			Role:      role,
		},
		passwordHash: hash,
		sessions:     make(map[string]struct{}),
	}

	d.users = append(d.users, rec)
	d.byEmail[email] = rec
	d.byHandle[rec.Handle] = rec

	sid := randx.SessionID()
	rec.sessions[sid] = struct{}{}

	d.logger.Info().Int("u_id", id).Str("handle", rec.Handle).Int("role", int(role)).Msg("User registered.")

	return Session{UserID: id, SessionID: sid}, nil
}

// uniqueHandleLocked derives a lowercase handle of at most 20 runes, prefixing
// the user id until it is unique.
func (d *Directory) uniqueHandleLocked(id int, name string) string {
	base := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, name)

	handle := truncateRunes(base, maxHandleLen)
	prefix := strconv.Itoa(id)
	for attempt := 0; ; attempt++ {
		if _, taken := d.byHandle[handle]; !taken && utf8.RuneCountInString(handle) >= 1 {
			return handle
		}
		if attempt >= 3 {
			fallback := "user" + prefix
			for {
				if _, taken := d.byHandle[fallback]; !taken {
					return fallback
				}
				fallback += "_"
			}
		}
		handle = truncateRunes(prefix+handle, maxHandleLen)
	}
}

// Login verifies credentials and opens a new session.
func (d *Directory) Login(email, password string) (Session, *errs.CustomError) {
	if !emailRegex.MatchString(email) {
		return Session{}, errs.NewError(errs.ErrInvalidEmail)
	}

	d.mu.RLock()
	rec, ok := d.byEmail[email]
	var hash []byte
	if ok {
		hash = rec.passwordHash
	}
	d.mu.RUnlock()

	if !ok {
		return Session{}, errs.NewError(errs.ErrInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		d.logger.Warn().Int("u_id", rec.ID).Msg("Login password mismatch.")
		return Session{}, errs.NewError(errs.ErrInvalidCredentials)
	}

	sid := randx.SessionID()

	d.mu.Lock()
	defer d.mu.Unlock()

	// A Reset between the two critical sections invalidates rec.
	if current, ok := d.byEmail[email]; !ok || current != rec {
		return Session{}, errs.NewError(errs.ErrInvalidCredentials)
	}
	rec.sessions[sid] = struct{}{}

	return Session{UserID: rec.ID, SessionID: sid}, nil
}

// Logout closes the given session. An inactive session is an AccessError.
func (d *Directory) Logout(userID int, sessionID string) *errs.CustomError {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec := d.getLocked(userID)
	if rec == nil {
		return errs.NewError(errs.ErrUnauthorized)
	}
	if _, ok := rec.sessions[sessionID]; !ok {
		return errs.NewError(errs.ErrUnauthorized)
	}

	delete(rec.sessions, sessionID)
	return nil
}

// Resolve maps a session to its user. Unknown users and closed sessions are AccessErrors.
func (d *Directory) Resolve(userID int, sessionID string) (User, *errs.CustomError) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rec := d.getLocked(userID)
	if rec == nil {
		return User{}, errs.NewError(errs.ErrUnauthorized)
	}
	if _, ok := rec.sessions[sessionID]; !ok {
		return User{}, errs.NewError(errs.ErrUnauthorized)
	}

	return rec.User, nil
}

// Active reports whether the session is still open.
func (d *Directory) Active(userID int, sessionID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rec := d.getLocked(userID)
	if rec == nil {
		return false
	}
	_, ok := rec.sessions[sessionID]
	return ok
}

// Get returns a snapshot of the user with the given id.
func (d *Directory) Get(id int) (User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rec := d.getLocked(id)
	if rec == nil {
		return User{}, false
	}
	return rec.User, true
}

// ByHandle returns the user owning handle.
func (d *Directory) ByHandle(handle string) (User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rec, ok := d.byHandle[handle]
	if !ok {
		return User{}, false
	}
	return rec.User, true
}

// All returns every user ordered by id.
func (d *Directory) All() []User {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]User, 0, len(d.users))
	for _, rec := range d.users {
		out = append(out, rec.User)
	}
	return out
}

// SetName updates the first and last name of a user.
func (d *Directory) SetName(id int, nameFirst, nameLast string) *errs.CustomError {
	if !validName(nameFirst) || !validName(nameLast) {
		return errs.NewError(errs.ErrInvalidName)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	rec := d.getLocked(id)
	if rec == nil {
		return errs.NewError(errs.ErrUserNotFound)
	}

	rec.NameFirst = nameFirst
	rec.NameLast = nameLast
	return nil
}

// SetHandle changes the display handle of a user. Handles are unique.
func (d *Directory) SetHandle(id int, handle string) *errs.CustomError {
	n := utf8.RuneCountInString(handle)
	if n < minHandleLen || n > maxHandleLen || strings.TrimSpace(handle) == "" {
		return errs.NewError(errs.ErrInvalidHandle)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	rec := d.getLocked(id)
	if rec == nil {
		return errs.NewError(errs.ErrUserNotFound)
	}

	if owner, taken := d.byHandle[handle]; taken {
		if owner == rec {
			return nil
		}
		return errs.NewError(errs.ErrHandleTaken)
	}

	delete(d.byHandle, rec.Handle)
	rec.Handle = handle
	d.byHandle[handle] = rec
	return nil
}

// SetRole changes the global role of target. Only a global admin may do so.
func (d *Directory) SetRole(actorID, targetID int, role Role) *errs.CustomError {
	d.mu.Lock()
	defer d.mu.Unlock()

	actor := d.getLocked(actorID)
	if actor == nil {
		return errs.NewError(errs.ErrUnauthorized)
	}
	if !actor.IsGlobalAdmin() {
		return errs.NewError(errs.ErrNotGlobalAdmin)
	}

	target := d.getLocked(targetID)
	if target == nil {
		return errs.NewError(errs.ErrUserNotFound)
	}
	if !role.Valid() {
		return errs.NewError(errs.ErrInvalidRole)
	}

	target.Role = role
	d.logger.Info().Int("actor", actorID).Int("target", targetID).Int("role", int(role)).Msg("User role changed.")
	return nil
}

// Reset removes every user and session.
func (d *Directory) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.users = nil
	d.byEmail = make(map[string]*record)
	d.byHandle = make(map[string]*record)
}

func (d *Directory) getLocked(id int) *record {
	if id < 0 || id >= len(d.users) {
		return nil
	}
	return d.users[id]
}

func validName(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= 1 && n <= maxNameLen && strings.TrimSpace(name) != ""
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
