// Package fundsearch embeds the fund and stock search service in another Go
// program without the HTTP layer.
//
// The client reads the same YAML configuration as the server, builds or
// loads every configured dataset, and answers free-text queries:
//
//	client, err := fundsearch.New(ctx, fundsearch.WithConfigFile("config/local.yaml"))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	for _, r := range client.Query(ctx, "tax saving elss funds") {
//	    fmt.Println(r.Name, r.Category, r.Score)
//	}
//
// Embedding and intent classification default to the providers named in the
// configuration. Tests and offline tools may inject their own with
// WithEmbedder and WithClassifier.
package fundsearch
