package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/southside-backend/api/responses"
	"github.com/angelmondragon/southside-backend/api/validators"
	"github.com/angelmondragon/southside-backend/internal/servicedates"
	"github.com/angelmondragon/southside-backend/pkg/logger"
)

const maxServiceDates = 8

// ServiceDates lists the upcoming Monday collection days in loc.
func ServiceDates(loc *time.Location, now func() time.Time, logg *logger.Logger) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := validators.ParseQueryInt(r, "count", servicedates.DefaultCount, 1, maxServiceDates)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"window": servicedates.Window,
			"dates":  servicedates.NextMondays(now(), count, loc),
		})
	}
}
