package usecase

import (
	"context"
	"net/url"
	"strings"

	"github.com/fadilmartias/dealer-feedback/internal/model"
)

// ResolveEntryToken picks the feedback token from the entry URL. A non-blank
// path segment wins over the "token" query parameter.
func ResolveEntryToken(pathParam, rawQuery string) (string, bool) {
	if token := strings.TrimSpace(pathParam); token != "" {
		return token, true
	}
	query, err := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	if err != nil && len(query) == 0 {
		return "", false
	}
	if token := strings.TrimSpace(query.Get("token")); token != "" {
		return token, true
	}
	return "", false
}

// lookupStrategy is one way of turning a token into a record. find returns
// (nil, nil) when nothing matched.
type lookupStrategy struct {
	name            string
	notFoundMessage string
	applies         func(token string) bool
	find            func(ctx context.Context, token string) (*model.SoldVehicle, error)
}

func defaultLookupStrategies(store SoldVehicleStore) []lookupStrategy {
	return []lookupStrategy{
		{
			name:            "feedback_token",
			notFoundMessage: MsgInvalidOrExpired,
			find: func(ctx context.Context, token string) (*model.SoldVehicle, error) {
				rows, err := store.FindByFeedbackToken(ctx, token)
				if err != nil || len(rows) == 0 {
					return nil, err
				}
				return &rows[0], nil
			},
		},
		{
			// Records created before tokens were stored on the document were
			// linked by their id.
			name:            "document_id",
			notFoundMessage: MsgInvalidCheckURL,
			applies:         isDocumentID,
			find:            store.FindByID,
		},
	}
}

func isDocumentID(token string) bool {
	return token != "" && !strings.Contains(token, "/")
}
