// rotorsrv drives an azimuth/elevation antenna rotator and exposes it over
// the hamlib rotctl TCP protocol and a small web control surface.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"

	yml "gopkg.in/yaml.v2"

	"github.com/hamlab/gorotor/axis"
	"github.com/hamlab/gorotor/gpio"
	"github.com/hamlab/gorotor/rotator"
	"github.com/hamlab/gorotor/rotctl"
	"github.com/hamlab/gorotor/web"
)

var (
	// Version is the version number.  Typically injected via ldflags with git build
	Version = "1"

	// ConfigFileName is what it sounds like
	ConfigFileName = "rotorsrv.yml"
	k              = koanf.New(".")
)

func setupconfig() {
	k.Load(structs.Provider(defaultConfig(), "koanf"), nil)
	if err := k.Load(file.Provider(ConfigFileName), yaml.Parser()); err != nil {
		errtxt := err.Error()
		if !strings.Contains(errtxt, "no such") { // file missing, who cares
			log.Fatalf("error loading config: %v", err)
		}
	}
}

func root() {
	str := `rotorsrv points an az/el antenna rotator.  It speaks the hamlib rotctl
protocol on one port, so gpredict and friends can drive it, and serves a
web page on another for manual control.

Usage:
	rotorsrv <command>

Commands:
	run
	help
	mkconf
	conf
	version`
	fmt.Println(str)
}

func help() {
	str := `rotorsrv is amenable to configuration via its .yaml file.  For a primer on
YAML, see https://yaml.org/start.html

Without a configuration the server runs with the mock backend, which moves
simulated motors and touches no hardware.  Generate a starting point with
mkconf and edit it.

Backends, set via the "backend" key:
- mock    simulated motors, no hardware required
- gpio    step/dir/enable stepper drivers on Raspberry Pi GPIO pins
- serial  an external step controller on a serial line or terminal server

Point rotctld-compatible clients (gpredict, rotctl) at the CtlAddr port.
The web page accepts AZ and EL query parameters in whole degrees, e.g.
http://rotor:8080/?AZ=180&EL=45`
	fmt.Println(str)
}

func mkconf() {
	c := Config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	f, err := os.Create(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	err = yml.NewEncoder(f).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func printconf() {
	c := Config{}
	k.Unmarshal("", &c)
	err := yml.NewEncoder(os.Stdout).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func pversion() {
	fmt.Printf("rotorsrv version %v\n", Version)
}

func run() {
	c := Config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var g gpio.Driver
	if strings.EqualFold(c.Backend, "gpio") {
		g, err = gpio.NewDriver(false)
		if err != nil {
			log.Fatalf("gpio: %v", err)
		}
		defer g.Close()
	}
	azMover, err := buildMover(c.Backend, g, c.Az)
	if err != nil {
		log.Fatalf("azimuth backend: %v", err)
	}
	elMover, err := buildMover(c.Backend, g, c.El)
	if err != nil {
		log.Fatalf("elevation backend: %v", err)
	}

	azAxis := axis.New(rotator.AZ, c.Az.StepsPerDegree(), azMover)
	elAxis := axis.New(rotator.EL, c.El.StepsPerDegree(), elMover)
	store := rotator.NewStore(azAxis, elAxis, c.Az.limits(), c.El.limits())

	sched := rotator.NewScheduler(store, c.period())
	go sched.Run(ctx)

	ctl := rotctl.NewServer(c.CtlAddr, store, c.idleTimeout())
	if err := ctl.Listen(); err != nil {
		log.Fatalf("rotctl listen: %v", err)
	}
	go func() {
		if err := ctl.Serve(ctx); err != nil {
			log.Printf("rotctl serve: %v", err)
		}
	}()
	log.Println("rotctl protocol on", c.CtlAddr)

	w := web.NewWrapper(store)
	go w.PublishMetrics(ctx, time.Second)
	srv := &http.Server{Addr: c.WebAddr, Handler: web.BuildMux(w)}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()
	log.Println("web surface on", c.WebAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

func main() {
	var cmd string
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}
	setupconfig()
	cmd = args[1]
	cmd = strings.ToLower(cmd)
	switch cmd {
	case "help":
		help()
		return
	case "mkconf":
		mkconf()
		return
	case "conf":
		printconf()
		return
	case "run":
		run()
		return
	case "version":
		pversion()
		return
	default:
		log.Fatal("unknown command")
	}
}
