// Package stats maintains per-view statistics snapshots. Every drink
// contributes to eight views (system, user, keg, session and their
// combinations); each view keeps one immutable row per contributing drink,
// chained from the view's previous row.
package stats

import (
	"strconv"
	"strings"

	"github.com/KirkDiggler/kegledger/internal/models"
)

// View identifies one aggregation scope
type View struct {
	// Kind is the combination of scopes the view aggregates over
	Kind models.ViewKind

	// UserID is set for user scoped views
	UserID *int64

	// KegID is set for keg scoped views
	KegID *int64

	// SessionID is set for session scoped views
	SessionID *int64
}

// Key returns the deterministic lookup key of the view, "u:<id>|k:<id>|s:<id>"
// with "-" for components the view is not scoped to
func (v View) Key() string {
	var b strings.Builder
	b.WriteString("u:")
	writeComponent(&b, v.UserID)
	b.WriteString("|k:")
	writeComponent(&b, v.KegID)
	b.WriteString("|s:")
	writeComponent(&b, v.SessionID)
	return b.String()
}

func writeComponent(b *strings.Builder, id *int64) {
	if id == nil {
		b.WriteByte('-')
		return
	}
	b.WriteString(strconv.FormatInt(*id, 10))
}

// SystemView is the site wide view
func SystemView() View {
	return View{Kind: models.ViewSystem}
}

// UserView is the view of one drinker
func UserView(userID int64) View {
	return View{Kind: models.ViewUser, UserID: &userID}
}

// KegView is the view of one keg
func KegView(kegID int64) View {
	return View{Kind: models.ViewKeg, KegID: &kegID}
}

// SessionView is the view of one session
func SessionView(sessionID int64) View {
	return View{Kind: models.ViewSession, SessionID: &sessionID}
}

// ViewsFor returns the eight views a drink contributes to. A drink that has
// not been assigned a session only contributes to the four session-less views.
func ViewsFor(drink *models.Drink) []View {
	user := drink.UserID
	keg := drink.KegID

	views := []View{
		{Kind: models.ViewSystem},
		{Kind: models.ViewUser, UserID: &user},
		{Kind: models.ViewKeg, KegID: &keg},
		{Kind: models.ViewUserKeg, UserID: &user, KegID: &keg},
	}
	if drink.SessionID == nil {
		return views
	}

	session := *drink.SessionID
	return append(views,
		View{Kind: models.ViewSession, SessionID: &session},
		View{Kind: models.ViewUserSession, UserID: &user, SessionID: &session},
		View{Kind: models.ViewKegSession, KegID: &keg, SessionID: &session},
		View{Kind: models.ViewUserKegSession, UserID: &user, KegID: &keg, SessionID: &session},
	)
}

// ScopedView returns the view scoped to exactly the given components
func ScopedView(userID, kegID, sessionID *int64) View {
	var kind models.ViewKind
	switch {
	case userID != nil && kegID != nil && sessionID != nil:
		kind = models.ViewUserKegSession
	case userID != nil && kegID != nil:
		kind = models.ViewUserKeg
	case userID != nil && sessionID != nil:
		kind = models.ViewUserSession
	case kegID != nil && sessionID != nil:
		kind = models.ViewKegSession
	case userID != nil:
		kind = models.ViewUser
	case kegID != nil:
		kind = models.ViewKeg
	case sessionID != nil:
		kind = models.ViewSession
	default:
		kind = models.ViewSystem
	}
	return View{Kind: kind, UserID: userID, KegID: kegID, SessionID: sessionID}
}
