package subst

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
	"github.com/rs/zerolog"

	"github.com/flexelog/logbookcfg/pkg/config"
)

// Anonymous is shown for the name of a user who is not logged in.
const Anonymous = "Anonymous"

// KeyTimeFormat is the strftime format used for $date and $utcdate.
const KeyTimeFormat = "Time format"

// User identifies the author of an entry. An empty Login is anonymous.
type User struct {
	Login    string
	FullName string
	Email    string
}

// Entry is the part of a logbook entry that substitution reads and
// presets write.
type Entry struct {
	Attrs map[string][]string
	Text  string
}

var (
	shortNameRe = regexp.MustCompile(`(?i)\$short_name`)
	longNameRe  = regexp.MustCompile(`(?i)\$long_name`)
	emailRe     = regexp.MustCompile(`(?i)\$user_email`)
	logbookRe   = regexp.MustCompile(`(?i)\$logbook`)
	dateRe      = regexp.MustCompile(`(?i)\$date`)
	utcDateRe   = regexp.MustCompile(`(?i)\$utcdate`)
	versionRe   = regexp.MustCompile(`(?i)\$version`)
)

// Substituter expands $variables in text configured for one logbook.
// Settings are read through the caller's scope, so conditional values
// apply.
type Substituter struct {
	scope   *config.Scope
	logbook string
	user    User
	version string
	now     func() time.Time
	logger  zerolog.Logger
}

// Option configures a Substituter.
type Option func(*Substituter)

// WithVersion sets the value of $version.
func WithVersion(v string) Option {
	return func(s *Substituter) {
		s.version = v
	}
}

// WithClock replaces time.Now for $date and $utcdate.
func WithClock(now func() time.Time) Option {
	return func(s *Substituter) {
		s.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Substituter) {
		s.logger = logger
	}
}

// New creates a Substituter for logbook as seen by user.
func New(scope *config.Scope, logbook string, user User, opts ...Option) *Substituter {
	s := &Substituter{
		scope:   scope,
		logbook: logbook,
		user:    user,
		version: "dev",
		now:     time.Now,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "subst").Str("logbook", logbook).Logger()
	return s
}

// Substitute replaces the supported variables in text:
//
//	$<attribute>  value of the entry attribute, multiple values joined by " | "
//	$short_name   login name of the user
//	$long_name    full name of the user
//	$user_email   email address of the user
//	$logbook      logbook name
//	$date         current local time, formatted with "Time format"
//	$utcdate      current UTC time, formatted with "Time format"
//	$version      program version
//
// Matching ignores case. Unknown variables are left unchanged.
func (s *Substituter) Substitute(text string, entry *Entry) string {
	if !strings.Contains(text, "$") {
		return text
	}

	if entry != nil {
		text = substituteAttrs(text, entry.Attrs)
	}

	shortName, longName := Anonymous, Anonymous
	if s.user.Login != "" {
		shortName, longName = s.user.Login, s.user.FullName
	}
	text = shortNameRe.ReplaceAllLiteralString(text, shortName)
	text = longNameRe.ReplaceAllLiteralString(text, longName)
	text = emailRe.ReplaceAllLiteralString(text, s.user.Email)
	text = logbookRe.ReplaceAllLiteralString(text, s.logbook)

	now := s.now()
	if dateRe.MatchString(text) {
		text = dateRe.ReplaceAllLiteralString(text, s.formatTime(now.Local()))
	}
	if utcDateRe.MatchString(text) {
		text = utcDateRe.ReplaceAllLiteralString(text, s.formatTime(now.UTC()))
	}

	return versionRe.ReplaceAllLiteralString(text, s.version)
}

func (s *Substituter) formatTime(t time.Time) string {
	format := s.scope.String(s.logbook, KeyTimeFormat, "")
	if format == "" {
		return t.Format(time.DateTime)
	}
	return strftime.Format(format, t)
}

// substituteAttrs replaces $<attribute> for every attribute of the entry.
// Longer names go first so that an attribute named like the prefix of
// another does not consume its variable.
func substituteAttrs(text string, attrs map[string][]string) string {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		re, err := regexp.Compile(`(?i)\$` + regexp.QuoteMeta(name) + `\b`)
		if err != nil {
			continue
		}
		text = re.ReplaceAllLiteralString(text, strings.Join(attrs[name], " | "))
	}
	return text
}
