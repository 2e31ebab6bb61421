package stats

import (
	"sort"
	"strconv"
	"time"

	"github.com/KirkDiggler/kegledger/internal/models"
)

// DrinkContext is everything a statistic may read about the drink being added
type DrinkContext struct {
	// Drink is the contributing drink
	Drink *models.Drink

	// Username is the drinker's username
	Username string

	// IsGuest is set for anonymous pours
	IsGuest bool

	// Location is the time zone captured by the drink's session
	Location *time.Location
}

// statistic derives one field of the next snapshot from the drink and the prior
// snapshot. Statistics never modify prior.
type statistic func(dc *DrinkContext, prior *models.Snapshot, next *models.Snapshot)

var statistics = []statistic{
	totalVolume,
	totalPours,
	averageVolume,
	greatestVolume,
	smallestVolume,
	volumeByDayOfWeek,
	volumeByYear,
	volumeByDrinker,
	volumeBySession,
	hasGuestPour,
	registeredDrinkers,
	sessionsCount,
	largestSession,
	drinkRange,
}

// Apply returns the snapshot that results from adding the drink to prior
func Apply(dc *DrinkContext, prior *models.Snapshot) *models.Snapshot {
	if prior == nil {
		prior = models.NewSnapshot()
	}
	next := models.NewSnapshot()
	for _, stat := range statistics {
		stat(dc, prior, next)
	}
	return next
}

func totalVolume(dc *DrinkContext, prior, next *models.Snapshot) {
	next.TotalVolume = prior.TotalVolume + dc.Drink.Volume
}

func totalPours(dc *DrinkContext, prior, next *models.Snapshot) {
	next.TotalPours = prior.TotalPours + 1
}

func averageVolume(dc *DrinkContext, prior, next *models.Snapshot) {
	next.AverageVolume = (prior.TotalVolume + dc.Drink.Volume) / float64(prior.TotalPours+1)
}

func greatestVolume(dc *DrinkContext, prior, next *models.Snapshot) {
	next.GreatestVolume, next.GreatestVolumeID = prior.GreatestVolume, prior.GreatestVolumeID
	if prior.TotalPours == 0 || dc.Drink.Volume > prior.GreatestVolume {
		next.GreatestVolume, next.GreatestVolumeID = dc.Drink.Volume, dc.Drink.ID
	}
}

func smallestVolume(dc *DrinkContext, prior, next *models.Snapshot) {
	next.SmallestVolume, next.SmallestVolumeID = prior.SmallestVolume, prior.SmallestVolumeID
	if prior.TotalPours == 0 || dc.Drink.Volume < prior.SmallestVolume {
		next.SmallestVolume, next.SmallestVolumeID = dc.Drink.Volume, dc.Drink.ID
	}
}

// volumeByDayOfWeek keys by weekday in the session's time zone, Sunday is "0"
func volumeByDayOfWeek(dc *DrinkContext, prior, next *models.Snapshot) {
	next.VolumeByDayOfWeek = addToCopy(prior.VolumeByDayOfWeek,
		strconv.Itoa(int(dc.localTime().Weekday())), dc.Drink.Volume)
}

func volumeByYear(dc *DrinkContext, prior, next *models.Snapshot) {
	next.VolumeByYear = addToCopy(prior.VolumeByYear, strconv.Itoa(dc.localTime().Year()), dc.Drink.Volume)
}

func volumeByDrinker(dc *DrinkContext, prior, next *models.Snapshot) {
	next.VolumeByDrinker = addToCopy(prior.VolumeByDrinker, dc.Username, dc.Drink.Volume)
}

func volumeBySession(dc *DrinkContext, prior, next *models.Snapshot) {
	next.VolumeBySession = copyMap(prior.VolumeBySession)
	if key, ok := dc.sessionKey(); ok {
		next.VolumeBySession[key] += dc.Drink.Volume
	}
}

func hasGuestPour(dc *DrinkContext, prior, next *models.Snapshot) {
	next.HasGuestPour = prior.HasGuestPour || dc.IsGuest
}

func registeredDrinkers(dc *DrinkContext, prior, next *models.Snapshot) {
	drinkers := append([]string{}, prior.RegisteredDrinkers...)
	if !dc.IsGuest {
		i := sort.SearchStrings(drinkers, dc.Username)
		if i == len(drinkers) || drinkers[i] != dc.Username {
			drinkers = append(drinkers, "")
			copy(drinkers[i+1:], drinkers[i:])
			drinkers[i] = dc.Username
		}
	}
	next.RegisteredDrinkers = drinkers
}

func sessionsCount(dc *DrinkContext, prior, next *models.Snapshot) {
	next.SessionsCount = prior.SessionsCount
	if key, ok := dc.sessionKey(); ok {
		if _, seen := prior.VolumeBySession[key]; !seen {
			next.SessionsCount++
		}
	}
}

func largestSession(dc *DrinkContext, prior, next *models.Snapshot) {
	next.LargestSession = prior.LargestSession
	if dc.Drink.SessionID == nil {
		return
	}

	key, _ := dc.sessionKey()
	volume := prior.VolumeBySession[key] + dc.Drink.Volume
	sessionID := *dc.Drink.SessionID
	if prior.LargestSession.SessionID == 0 || prior.LargestSession.SessionID == sessionID ||
		volume > prior.LargestSession.Volume {
		next.LargestSession = models.LargestSession{SessionID: sessionID, Volume: volume}
	}
}

func drinkRange(dc *DrinkContext, prior, next *models.Snapshot) {
	next.FirstDrinkID = prior.FirstDrinkID
	if next.FirstDrinkID == 0 {
		next.FirstDrinkID = dc.Drink.ID
	}
	next.LastDrinkID = dc.Drink.ID
}

func (dc *DrinkContext) localTime() time.Time {
	loc := dc.Location
	if loc == nil {
		loc = time.UTC
	}
	return dc.Drink.Time.In(loc)
}

func (dc *DrinkContext) sessionKey() (string, bool) {
	if dc.Drink.SessionID == nil {
		return "", false
	}
	return strconv.FormatInt(*dc.Drink.SessionID, 10), true
}

func copyMap(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

func addToCopy(in map[string]float64, key string, volume float64) map[string]float64 {
	out := copyMap(in)
	out[key] += volume
	return out
}
