// Command publisher — отправляет cookie витрины работающему сервису.
// Читает из stdin заголовок Cookie или вставленный дамп cookie браузера.
package main

import (
	"io"
	"log"
	"os"

	"github.com/example/topup-wallet-engine/internal/adapter/natsstan"
	"github.com/example/topup-wallet-engine/internal/adapter/session"
)

func main() {
	clusterID := getenv("STAN_CLUSTER_ID", "topup-cluster")
	clientID := getenv("STAN_PUB_ID", "topup-publisher")
	natsURL := getenv("NATS_URL", "nats://localhost:4222")
	subject := getenv("STAN_CREDENTIAL_SUBJECT", "session.credentials")

	raw, err := io.ReadAll(io.LimitReader(os.Stdin, 64<<10))
	if err != nil {
		log.Fatalf("read stdin: %v", err)
	}
	cookie, err := session.NormalizeCookie(string(raw))
	if err != nil {
		log.Fatalf("credential: %v", err)
	}

	sc, err := natsstan.Connect(clusterID, clientID, natsURL)
	if err != nil {
		log.Fatalf("stan connect: %v", err)
	}
	defer sc.Close()

	if err := sc.Publish(subject, []byte(cookie)); err != nil {
		log.Fatalf("publish: %v", err)
	}
	log.Printf("published credential (%d bytes) to %s", len(cookie), subject)
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
