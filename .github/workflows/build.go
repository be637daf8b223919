package main

import (
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const buildDir = "./build"

// binary describes a program, packaged into each release archive.
type binary struct {
	name       string
	pkg        string
	versionVar string // variable, the tag name is linked into
}

var binaries = []binary{
	{name: "go-planning", pkg: "./cmd/go-planning", versionVar: "main.version"},
	{name: "go-planning-d", pkg: "./cmd/go-planning-d", versionVar: "github.com/gclaussn/go-planning/daemon.version"},
}

var targets = []target{
	{os: "darwin", arch: "arm64"},
	{os: "linux", arch: "amd64"},
	{os: "linux", arch: "arm64"},
	{os: "windows", arch: "amd64"},
}

func main() {
	log.SetFlags(0)

	flags := flag.NewFlagSet("build", flag.ContinueOnError)
	flags.SetOutput(log.Writer())

	var tagName string
	flags.StringVar(&tagName, "tag-name", "", "name of the tag to build")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		} else {
			os.Exit(1)
		}
	}

	if tagName == "" {
		log.Fatal("please provide a tag name")
	}

	if err := os.RemoveAll(buildDir); err != nil {
		log.Fatalf("failed to delete build directory: %v", err)
	}
	if err := os.MkdirAll(buildDir, 0700); err != nil {
		log.Fatalf("failed to create build directory: %v", err)
	}

	var checksums []string
	for _, t := range targets {
		workDir := filepath.Join(buildDir, t.String())

		files := make([]string, len(binaries))
		for i, b := range binaries {
			files[i] = t.executable(b.name)
			goBuild(t, "-trimpath", "-ldflags", "-s -w -X "+b.versionVar+"="+tagName, "-o", filepath.Join(workDir, files[i]), b.pkg)
		}

		archive := fmt.Sprintf("go-planning-%s-%s.tar.gz", tagName, t)
		tarArgs := append([]string{"-C", workDir, "-czf", filepath.Join(buildDir, archive)}, files...)
		run(t, exec.Command("tar", tarArgs...))

		if err := os.RemoveAll(workDir); err != nil {
			log.Fatalf("failed to delete %s: %v", workDir, err)
		}

		checksums = append(checksums, checksum(archive)+"  "+archive)
	}

	checksumFile := filepath.Join(buildDir, fmt.Sprintf("go-planning-%s.sha256", tagName))
	if err := os.WriteFile(checksumFile, []byte(strings.Join(checksums, "\n")+"\n"), 0600); err != nil {
		log.Fatalf("failed to write checksum file: %v", err)
	}

	log.Printf("wrote %d archives and %s", len(targets), checksumFile)
}

type target struct {
	os   string
	arch string
}

func (t target) String() string {
	return t.os + "-" + t.arch
}

func (t target) executable(name string) string {
	if t.os == "windows" {
		return name + ".exe"
	}
	return name
}

func goBuild(t target, args ...string) {
	cmd := exec.Command("go", append([]string{"build"}, args...)...)
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0", "GOOS="+t.os, "GOARCH="+t.arch)
	run(t, cmd)
}

func run(t target, cmd *exec.Cmd) {
	log.Printf("%s: %s", t, strings.Join(cmd.Args, " "))

	out, err := cmd.CombinedOutput()
	if len(out) != 0 {
		log.Println(string(out))
	}
	if err != nil {
		log.Fatalf("failed to run command: %v", err)
	}
}

// checksum returns the hex encoded SHA-256 sum of a build artifact.
func checksum(name string) string {
	f, err := os.Open(filepath.Join(buildDir, name))
	if err != nil {
		log.Fatalf("failed to open %s: %v", name, err)
	}

	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		log.Fatalf("failed to read %s: %v", name, err)
	}
	return hex.EncodeToString(h.Sum(nil))
}
