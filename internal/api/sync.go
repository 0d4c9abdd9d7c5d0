package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jdholdren/ranger/internal/queue"
)

// postUserSync queues a sync instead of running one inline: the queue
// dedups against any sync already in flight for the user.
func (s Server) postUserSync(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx    = r.Context()
		userID = mux.Vars(r)["userID"]
	)

	if _, err := s.repo.User(ctx, userID); err != nil {
		return err
	}

	if err := s.jobs.Enqueue(ctx, queue.UserSyncJob(userID)); err != nil {
		return err
	}

	return writeJSON(w, http.StatusAccepted, struct {
		Queued bool `json:"queued"`
	}{Queued: true})
}
