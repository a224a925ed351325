package handlers

import (
	"net/http"

	"github.com/receiptdrop/receiptdrop/internal/db"
	"github.com/receiptdrop/receiptdrop/internal/web/middleware"
	"gorm.io/gorm"
)

const historyLimit = 50

// HistoryHandler lists the signed-in user's recent save records.
func HistoryHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Sign in required")
			return
		}

		records, err := db.RecentSaves(database, user.Email, historyLimit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load history: "+err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"saves": records,
		})
	}
}
