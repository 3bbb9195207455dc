// Package searchwire is a Go client for the kailas streaming search
// pipeline. It consumes the server-sent event stream of a search request,
// aggregates it into a live session projection and reconstructs the
// pipeline's process trace.
//
//	client, _ := searchwire.New("https://search.example.com",
//	    searchwire.WithAPIKey(os.Getenv("SEARCH_API_KEY")),
//	)
//	defer client.Close()
//
//	s, _ := client.Search(ctx, "articles", "solar panel efficiency", nil)
//	for snap := range s.Updates() {
//	    fmt.Print("\r", snap.Answer)
//	    if snap.Phase.Terminal() {
//	        break
//	    }
//	}
//	fmt.Println(s.TraceText())
//
// Opening a new search on the same client supersedes the previous one:
// its remaining events are discarded silently. Cancel aborts a search and
// delivers a final cancelled snapshot.
package searchwire
