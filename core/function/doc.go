// Package function runs a router.Dispatcher in the AWS Lambda runtime or, for
// local development, behind net/http.
//
//	d, err := r.Build()
//	if err != nil {
//		log.Fatal(err)
//	}
//	function.Start(d)
//
// Locally the same dispatcher is served over HTTP; requests are converted to the
// payload format 2.0 events API Gateway would deliver:
//
//	srv, _ := function.NewLocalServer(function.LocalConfig{Addr: ":8080"})
//	err = srv.Run(ctx, d)
package function
