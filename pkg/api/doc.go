// Package api is a small client for the transformations REST API.
//
// It covers the calls needed to reconcile transformations, their schedules and
// their notification subscriptions, plus data set lookups by external id. All
// requests are scoped to one project and authenticated either with an API key
// or with OAuth2 client credentials.
//
// Requests are paced with a token bucket limiter. Responses with status 429 or
// 5xx are retried with exponential backoff up to Config.MaxRetries times; any
// other failure is returned as an *Error, which can be matched against
// ErrNotFound and ErrDuplicated with errors.Is.
//
// Example:
//
//	client, err := api.NewClient(api.Config{
//		BaseURL: "https://europe-west1-1.cognitedata.com",
//		Project: "my-project",
//		OAuth: &api.OAuthConfig{
//			ClientID:     "client-id",
//			ClientSecret: "client-secret",
//			TokenURL:     "https://login.example.com/oauth2/token",
//			Scopes:       []string{"https://europe-west1-1.cognitedata.com/.default"},
//		},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	ds, err := client.RetrieveDataSet(ctx, api.ByExternalID("my-data-set"))
//	if errors.Is(err, api.ErrNotFound) {
//		// ...
//	}
package api
