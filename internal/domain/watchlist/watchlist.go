package watchlist

import "github.com/martinmanurung/cinereview/internal/domain/movies"

// Entry is a watchlist row. Its ID is distinct from the embedded movie's ID.
type Entry struct {
	ID      int64        `json:"id"`
	MovieID int64        `json:"movie_id"`
	UserID  int64        `json:"user_id"`
	Note    string       `json:"note,omitempty"`
	Movie   movies.Movie `json:"movie"`
}

// AddEntryRequest is the POST /api/watchlist body
type AddEntryRequest struct {
	MovieID int64  `json:"movie_id"`
	Note    string `json:"note,omitempty"`
}

// Find returns the first entry whose embedded movie has movieID.
func Find(entries []Entry, movieID int64) (Entry, bool) {
	for _, e := range entries {
		if e.Movie.ID == movieID {
			return e, true
		}
	}
	return Entry{}, false
}

// Contains reports watchlist membership of movieID.
func Contains(entries []Entry, movieID int64) bool {
	_, ok := Find(entries, movieID)
	return ok
}

// Without returns entries minus the one with entryID, leaving entries intact.
func Without(entries []Entry, entryID int64) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.ID != entryID {
			out = append(out, e)
		}
	}
	return out
}
