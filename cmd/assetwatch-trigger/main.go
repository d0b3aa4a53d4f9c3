// assetwatch-trigger invokes an alert-check action against a running
// AssetWatch server. It exists so cron or any external scheduler can drive
// alert generation; the server itself never runs checks on its own.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

var validActions = map[string]bool{
	"check-utilization": true,
	"check-maintenance": true,
	"check-end-of-life": true,
	"generate-alerts":   true,
}

func main() {
	server := flag.String("server", "http://localhost:8080", "AssetWatch server base URL")
	action := flag.String("action", "generate-alerts", "Alert action to run")
	timeout := flag.Duration("timeout", 30*time.Second, "Request timeout")
	flag.Parse()

	if !validActions[*action] {
		logrus.Fatalf("Invalid action %q", *action)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/api/device-alerts?action=%s", *server, url.QueryEscape(*action))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		logrus.Fatalf("Failed to build request: %v", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		logrus.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logrus.Fatalf("Failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		logrus.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   string(body),
		}).Fatal("Alert check failed")
	}

	var pretty map[string]any
	if err := json.Unmarshal(body, &pretty); err != nil {
		logrus.Fatalf("Unexpected response: %s", body)
	}

	out, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Fprintln(os.Stdout, string(out))
}
