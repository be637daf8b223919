package main

import (
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const repository = "gclaussn/go-planning"

// contentTypes maps the suffixes of build artifacts, produced by build.go, to the content types used for upload.
var contentTypes = []struct {
	suffix      string
	contentType string
}{
	{suffix: ".tar.gz", contentType: "application/gzip"},
	{suffix: ".sha256", contentType: "text/plain; charset=utf-8"},
}

func main() {
	log.SetFlags(0)

	flags := flag.NewFlagSet("upload-release-assets", flag.ContinueOnError)
	flags.SetOutput(log.Writer())

	var (
		releaseId string
		dryRun    bool
	)

	flags.StringVar(&releaseId, "release-id", "", "ID of the Github release")
	flags.BoolVar(&dryRun, "dry-run", false, "list the assets, without uploading them")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		} else {
			os.Exit(1)
		}
	}

	if releaseId == "" {
		log.Fatal("please provide a release ID")
	}

	githubToken := os.Getenv("GITHUB_TOKEN")
	if githubToken == "" && !dryRun {
		log.Fatal("please set environment variable GITHUB_TOKEN")
	}

	buildArtifacts, err := os.ReadDir("./build")
	if err != nil {
		log.Fatalf("failed to read build directory: %v", err)
	}

	var uploaded int
	for _, buildArtifact := range buildArtifacts {
		if buildArtifact.IsDir() {
			continue
		}

		name := buildArtifact.Name()

		contentType, ok := contentTypeOf(name)
		if !ok {
			log.Fatalf("file %s has an unsupported extension", name)
		}

		log.Printf("%s (%s)", name, contentType)
		if dryRun {
			continue
		}

		uploadReleaseAsset(githubToken, releaseId, name, contentType)
		uploaded++
	}

	if uploaded == 0 && !dryRun {
		log.Fatal("no build artifacts found")
	}
}

func contentTypeOf(name string) (string, bool) {
	for _, c := range contentTypes {
		if strings.HasSuffix(name, c.suffix) {
			return c.contentType, true
		}
	}
	return "", false
}

func uploadReleaseAsset(githubToken string, releaseId string, name string, contentType string) {
	uploadUrl := fmt.Sprintf(
		"https://uploads.github.com/repos/%s/releases/%s/assets?name=%s",
		repository,
		url.PathEscape(releaseId),
		url.QueryEscape(name),
	)

	cmd := exec.Command(
		"curl",
		"--fail-with-body",
		"-sS",
		"-L",
		"-X", "POST",
		"-H", "Accept: application/vnd.github+json",
		"-H", "Authorization: Bearer "+githubToken,
		"-H", "X-GitHub-Api-Version: 2022-11-28",
		"-H", "Content-Type: "+contentType,
		uploadUrl,
		"--data-binary", "@"+filepath.Join("build", name),
	)

	out, err := cmd.Output()
	if err != nil {
		log.Printf("%s", out)
		log.Fatalf("failed to upload %s: %v", name, err)
	}
}
