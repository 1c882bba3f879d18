// Command shadow_compare replays read-only requests against the legacy
// Cloud Functions deployment and the Go API and reports envelope differences.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"
)

type target struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	GoPath   string `json:"goPath,omitempty"`
	Auth     bool   `json:"auth"`
	Critical bool   `json:"critical"`
	// Ignore lists object keys dropped before bodies are compared.
	Ignore []string `json:"ignore,omitempty"`
}

type targetFile struct {
	Ignore  []string `json:"ignore"`
	Targets []target `json:"targets"`
}

type endpoint struct {
	base   string
	prefix string
	token  string
}

type comparison struct {
	Target         target
	LegacyStatus   int
	GoStatus       int
	StatusMatch    bool
	BodyMatch      bool
	Error          error
	DurationGo     time.Duration
	DurationLegacy time.Duration
}

func main() {
	var (
		goAPI       endpoint
		legacyAPI   endpoint
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&goAPI.base, "go-base", "http://localhost:8080", "Go API base URL")
	flag.StringVar(&goAPI.prefix, "go-prefix", "/api/v1", "Go API route prefix")
	flag.StringVar(&legacyAPI.base, "legacy-base", "http://localhost:5001/rekrut/us-central1/api", "Legacy functions base URL")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "shadow_compare", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	goAPI.token = os.Getenv("SHADOW_GO_TOKEN")
	legacyAPI.token = os.Getenv("SHADOW_LEGACY_TOKEN")

	file, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		comparisons  []comparison
		breaking     int
		optionalDiff int
	)

	for _, t := range file.Targets {
		comp := compareTarget(client, goAPI, legacyAPI, t, append(file.Ignore, t.Ignore...))
		if comp.Error != nil || !comp.StatusMatch || !comp.BodyMatch {
			if t.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		comparisons = append(comparisons, comp)
	}

	printReport(comparisons)

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) (*targetFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file targetFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return &file, nil
}

func compareTarget(client *http.Client, goAPI, legacyAPI endpoint, tgt target, ignore []string) comparison {
	comp := comparison{Target: tgt}

	goPath := tgt.Path
	if tgt.GoPath != "" {
		goPath = tgt.GoPath
	}
	goStatus, goBody, goDur, goErr := fetch(client, goAPI, tgt.Method, goPath, tgt.Auth)
	legacyStatus, legacyBody, legacyDur, legacyErr := fetch(client, legacyAPI, tgt.Method, tgt.Path, tgt.Auth)
	comp.DurationGo = goDur
	comp.DurationLegacy = legacyDur

	if goErr != nil {
		comp.Error = fmt.Errorf("go request failed: %w", goErr)
		return comp
	}
	if legacyErr != nil {
		comp.Error = fmt.Errorf("legacy request failed: %w", legacyErr)
		return comp
	}

	comp.GoStatus = goStatus
	comp.LegacyStatus = legacyStatus
	comp.StatusMatch = statusEquivalent(goStatus, legacyStatus)
	comp.BodyMatch = bodiesEqual(goBody, legacyBody, ignore)
	return comp
}

// statusEquivalent treats the Go API's 201 on create as matching the legacy 200.
func statusEquivalent(goStatus, legacyStatus int) bool {
	if goStatus == legacyStatus {
		return true
	}
	return goStatus == http.StatusCreated && legacyStatus == http.StatusOK
}

func fetch(client *http.Client, api endpoint, method, path string, auth bool) (int, []byte, time.Duration, error) {
	if client == nil {
		return 0, nil, 0, errors.New("nil client")
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := strings.TrimRight(api.base, "/") + strings.TrimRight(api.prefix, "/") + path

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return 0, nil, 0, err
	}
	if auth && api.token != "" {
		req.Header.Set("Authorization", "Bearer "+api.token)
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, time.Since(start), fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, time.Since(start), nil
}

func bodiesEqual(a, b []byte, ignore []string) bool {
	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	skip := make(map[string]struct{}, len(ignore))
	for _, key := range ignore {
		skip[key] = struct{}{}
	}
	normalize(&aj, skip)
	normalize(&bj, skip)
	return reflect.DeepEqual(aj, bj)
}

func normalize(v *interface{}, skip map[string]struct{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for k, v2 := range val {
			if _, drop := skip[k]; drop {
				delete(val, k)
				continue
			}
			normalize(&v2, skip)
			val[k] = v2
		}
	case []interface{}:
		for i, v2 := range val {
			normalize(&v2, skip)
			val[i] = v2
		}
	case float64:
		if val == float64(int64(val)) {
			*v = int64(val)
		}
	}
}

func printReport(results []comparison) {
	fmt.Println("Shadow Compare Report")
	fmt.Println("======================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.StatusMatch || !res.BodyMatch {
			status = "DIFF"
		}
		fmt.Printf("[%s] %s %s\n", status, res.Target.Method, res.Target.Path)
		fmt.Printf("  Go Status: %d (%s)\n", res.GoStatus, res.DurationGo)
		fmt.Printf("  Legacy Status: %d (%s)\n", res.LegacyStatus, res.DurationLegacy)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
		} else {
			fmt.Printf("  Status match: %t | Body match: %t | Critical: %t\n", res.StatusMatch, res.BodyMatch, res.Target.Critical)
		}
	}
}
