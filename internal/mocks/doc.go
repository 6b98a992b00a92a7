// Package mocks provides shared test doubles for the store, auth and
// reminder interfaces.
//
// Two styles live side by side. The Mock* types are hand-written fakes:
// MockUserStore and MockTaskStore keep real state in memory and follow the
// same ownership and reminder bookkeeping rules as the PostgreSQL stores,
// while function fields such as CreateFn override single methods for
// failure injection. TestifyMockUserStore is a testify/mock double for
// tests that want to assert exact calls.
//
//	users := mocks.NewMockUserStore()
//	tasks := mocks.NewMockTaskStore(users)
//	tasks.MarkNotifiedFn = func(ctx context.Context, task *domain.Task, at time.Time) (bool, error) {
//	    return false, errors.New("db down")
//	}
package mocks
