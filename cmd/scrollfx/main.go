package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gopkg.in/guregu/null.v3"

	"github.com/scrollfx/scrollfx/cdp"
	"github.com/scrollfx/scrollfx/config"
	"github.com/scrollfx/scrollfx/counter"
	"github.com/scrollfx/scrollfx/dom"
	"github.com/scrollfx/scrollfx/engine"
	"github.com/scrollfx/scrollfx/js"
	"github.com/scrollfx/scrollfx/log"
	"github.com/scrollfx/scrollfx/storage"
	"github.com/scrollfx/scrollfx/viewport"
)

func main() {
	app := &cli.App{
		Name:  "scrollfx",
		Usage: "Drive and verify scroll-driven page effects",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "profile",
				Aliases: []string{"c"},
				Usage:   "Effect profile YAML file",
				EnvVars: []string{"SCROLLFX_PROFILE"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"SCROLLFX_LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "scan",
				Usage:     "Scan a static HTML page and print the detected effect targets",
				ArgsUsage: "<page.html>",
				Action:    runScan,
			},
			{
				Name:  "verify",
				Usage: "Check the effect invariants against a static HTML page",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "report",
						Usage: "Write the run report to this file",
					},
					&cli.StringFlag{
						Name:  "page-path",
						Usage: "Page path used for tracker gating (overrides profile)",
					},
					&cli.IntFlag{
						Name:  "steps",
						Usage: "Tick count per counter animation (overrides profile)",
					},
					&cli.IntFlag{
						Name:  "tick-ms",
						Usage: "Counter tick period in milliseconds (overrides profile)",
					},
				},
				ArgsUsage: "<page.html>",
				Action:    runVerify,
			},
			{
				Name:  "run",
				Usage: "Attach to a live page over CDP and drive the effects",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "devtools",
						Value: "localhost:9222",
						Usage: "DevTools HTTP endpoint of the browser",
					},
					&cli.StringFlag{
						Name:  "url-hint",
						Usage: "Substring selecting the page target to attach to",
					},
					&cli.StringFlag{
						Name:  "report",
						Usage: "Write the run report to this file",
					},
					&cli.DurationFlag{
						Name:  "duration",
						Value: 30 * time.Second,
						Usage: "How long to drive the page before detaching",
					},
					&cli.StringFlag{
						Name:      "page",
						Usage:     "Static HTML file mirroring the live page markup",
						Required:  true,
						TakesFile: true,
					},
				},
				Action: runLive,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "scrollfx: %v\n", err)
		os.Exit(1)
	}
}

func setup(c *cli.Context) (*config.Profile, *log.Logger, error) {
	profile, err := config.Load(c.String("profile"))
	if err != nil {
		return nil, nil, err
	}

	level, err := logrus.ParseLevel(c.String("log-level"))
	if err != nil {
		return nil, nil, fmt.Errorf("parsing log level: %w", err)
	}
	logger := log.New(os.Stderr, level)
	if err := logger.SetCategoryFilter(profile.Log.CategoryFilter); err != nil {
		return nil, nil, err
	}
	return profile, logger, nil
}

func scanPage(path string) (*dom.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening page %q: %w", path, err)
	}
	defer f.Close() //nolint:errcheck
	return dom.Scan(f)
}

func runScan(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("scan needs exactly one HTML file argument", 2)
	}
	profile, _, err := setup(c)
	if err != nil {
		return err
	}
	doc, err := scanPage(c.Args().First())
	if err != nil {
		return err
	}

	heading := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.Faint)

	heading.Println("reveal groups")
	for _, g := range profile.Reveal.Groups {
		elems := doc.ByClass(g.Class)
		fmt.Printf("  %-10s .%s: %d elements, stagger %dms\n", g.Name, g.Class, len(elems), g.StaggerMillis)
		for i, el := range elems {
			dim.Printf("    [%d] %s\n", i, el.ID())
		}
	}

	heading.Println("stat counters")
	for _, el := range doc.ByClass(profile.Counter.Class) {
		target, suffix := counter.ParseStat(el.Text())
		fmt.Printf("  %s: %q -> target %d%s\n", el.ID(), el.Text(), target, suffix)
	}

	heading.Println("section / link pairs")
	sections := doc.ByClass(profile.Tracker.SectionClass)
	links := doc.ByClass(profile.Tracker.LinkClass)
	for _, s := range sections {
		fmt.Printf("  #%s", s.ID())
		matched := false
		for _, l := range links {
			if dom.FragmentTarget(l) == s.ID() {
				matched = true
				break
			}
		}
		if !matched {
			dim.Printf("  (no matching link)")
		}
		fmt.Println()
	}
	return nil
}

func runVerify(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("verify needs exactly one HTML file argument", 2)
	}
	profile, logger, err := setup(c)
	if err != nil {
		return err
	}
	config.Overrides{
		PagePath:   null.NewString(c.String("page-path"), c.IsSet("page-path")),
		TickMillis: null.NewInt(int64(c.Int("tick-ms")), c.IsSet("tick-ms")),
		Steps:      null.NewInt(int64(c.Int("steps")), c.IsSet("steps")),
	}.Apply(profile)

	doc, err := scanPage(c.Args().First())
	if err != nil {
		return err
	}

	report, verr := engine.Verify(c.Context, profile, doc, logger)
	if path := c.String("report"); path != "" && report != nil {
		if err := storage.WriteReport(c.Context, &storage.LocalFilePersister{}, path, report); err != nil {
			return err
		}
	}
	if verr != nil {
		return cli.Exit(fmt.Sprintf("invariant violated: %v", verr), 1)
	}
	color.New(color.FgGreen).Println("all effect invariants hold")
	return nil
}

func runLive(c *cli.Context) error {
	profile, logger, err := setup(c)
	if err != nil {
		return err
	}
	doc, err := scanPage(c.String("page"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, c.Duration("duration"))
	defer cancel()

	wsURL, err := cdp.ResolvePageWebSocketURL(ctx, c.String("devtools"), c.String("url-hint"))
	if err != nil {
		return err
	}
	client := cdp.NewClient(ctx, logger)
	if err := client.Connect(wsURL); err != nil {
		return err
	}
	defer client.Disconnect()

	dispatcher := viewport.NewDispatcher(logger)
	driver := cdp.NewDriver(client, dispatcher, logger)

	if path, err := driver.PagePath(ctx); err == nil {
		profile.Page.Path = path
	} else {
		logger.Warnf("cli", "could not read page path, using profile value %q: %v", profile.Page.Path, err)
	}

	e, err := engine.FromDocument(profile, doc, engine.Options{
		Logger: logger,
		// Bind controllers to the live page so class and text mutations land
		// in the browser, not on the scanned copy.
		Bind: func(t engine.Target) dom.Element {
			return cdp.NewRemoteElement(ctx, client, logger, t.ID, cdp.Locator(t.Class, t.Index))
		},
	})
	if err != nil {
		return err
	}

	if err := driver.Install(ctx, observerGroups(profile, e)); err != nil {
		return err
	}
	go driver.Pump(ctx)

	e.Run(ctx, dispatcher)

	if path := c.String("report"); path != "" {
		reportCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := storage.WriteReport(reportCtx, &storage.LocalFilePersister{}, path, e.Report()); err != nil {
			return err
		}
	}
	return nil
}

func observerGroups(profile *config.Profile, e *engine.Engine) []js.ObserverGroup {
	revealCfg := viewport.Config{
		Threshold:        profile.Reveal.Threshold,
		RootMarginBottom: viewport.Margin{Pixels: profile.Reveal.BottomMarginPx},
	}
	groups := make([]js.ObserverGroup, 0, len(profile.Reveal.Groups)+2)
	for _, g := range profile.Reveal.Groups {
		groups = append(groups, js.ObserverGroup{
			Name:       g.Name,
			Selector:   "." + g.Class,
			Threshold:  profile.Reveal.Threshold,
			RootMargin: revealCfg.RootMargin(),
		})
	}
	groups = append(groups, js.ObserverGroup{
		Name:      engine.StatsGroup,
		Selector:  "." + profile.Counter.Class,
		Threshold: profile.Counter.Threshold,
	})
	if e.Tracker.ActiveFor(profile.Page.Path) {
		groups = append(groups, js.ObserverGroup{
			Name:       engine.SectionsGroup,
			Selector:   "." + profile.Tracker.SectionClass,
			Threshold:  0,
			RootMargin: e.Tracker.Config().RootMargin(),
		})
	}
	return groups
}
