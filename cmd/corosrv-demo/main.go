// Command corosrv-demo serves a minimal echo handler over corohttp,
// binding :7000 and logging to stderr.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/badu/corosrv/corohttp"
	"github.com/badu/corosrv/htx"
)

func main() {
	port := flag.Int("port", 7000, "listen port")
	flag.Parse()

	errLog := log.New(os.Stderr, "corosrv-demo: ", log.LstdFlags)

	srv := corohttp.New(echoHandler)
	srv.ErrorLog = errLog

	errLog.Printf("listening on :%d", *port)
	if err := srv.ListenAndServe(context.Background(), *port); err != nil {
		errLog.Fatalf("server exited: %v", err)
	}
}

func echoHandler(req htx.Request, cfg htx.Config) htx.Response {
	resp := htx.NewResponse(htx.StatusOK)
	resp.Headers.Set("Content-Type", "text/plain; charset=utf-8")
	body := "corosrv: " + req.Method.String() + " " + req.Path + "\n"
	if len(req.Body) > 0 {
		body += string(req.Body) + "\n"
	}
	resp.Body = []byte(body)
	return resp
}
