package console

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"browser-pilot/internal/config"
	"browser-pilot/internal/entity"
	"browser-pilot/internal/usecase"
	"browser-pilot/pkg/logg"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Interface struct {
	config   *config.Config
	logger   *zap.Logger
	usecase  *usecase.Service
	ctx      context.Context
	cancel   context.CancelFunc
	sigChan  chan os.Signal
	stopping bool
}

type Params struct {
	fx.In

	Config  *config.Config
	Logger  *zap.Logger
	Usecase *usecase.Service
}

func NewInterface(params Params) *Interface {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)

	return &Interface{
		config:  params.Config,
		logger:  params.Logger.With(zap.String(logg.Layer, "Console")),
		usecase: params.Usecase,
		ctx:     ctx,
		cancel:  cancel,
		sigChan: sigChan,
	}
}

func (i *Interface) Start() error {
	i.printBanner()
	i.printHelp()

	signal.Notify(i.sigChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-i.sigChan
		fmt.Println("\n\nInterrupt received, stopping...")
		i.stopping = true
		i.Stop()
	}()

	scanner := bufio.NewScanner(os.Stdin)

	for {
		if i.stopping {
			break
		}

		fmt.Print("\n> ")

		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())

		if input == "" {
			continue
		}

		if err := i.handleCommand(input); err != nil {
			if err.Error() == "exit" {
				break
			}

			i.logger.Error("Command error", zap.Error(err))
			fmt.Printf("Error: %v\n", err)
		}
	}

	return nil
}

func (i *Interface) Stop() error {
	if i.stopping {
		return nil
	}

	i.stopping = true
	i.logger.Info("Stopping console interface...")
	i.cancel()

	fmt.Println("Goodbye!")
	os.Exit(0)

	return nil
}

func (i *Interface) handleCommand(input string) error {
	fields := strings.Fields(input)

	switch fields[0] {
	case "help", "h":
		i.printHelp()

		return nil
	case "exit", "quit", "q":
		fmt.Println("Shutting down...")

		return fmt.Errorf("exit")
	case "tasks":
		i.printTasks()

		return nil
	case "show":
		if len(fields) < 2 {
			return fmt.Errorf("usage: show <task-id>")
		}

		return i.showTask(fields[1])
	case "run":
		if len(fields) < 3 {
			return fmt.Errorf("usage: run <url> <goal...>")
		}

		return i.runTask(fields[1], strings.Join(fields[2:], " "))
	default:
		return fmt.Errorf("unknown command %q (type 'help')", fields[0])
	}
}

func (i *Interface) runTask(startURL, goal string) error {
	fmt.Printf("\nRunning task: %s\n", goal)
	fmt.Printf("Target: %s\n", startURL)
	fmt.Println(strings.Repeat("-", 50))

	record := i.usecase.Tasks.Create(goal, startURL)

	result := i.usecase.Runner.Run(i.ctx, goal, startURL)

	i.usecase.Tasks.Complete(record.ID.String(), result)

	fmt.Println(strings.Repeat("-", 50))
	i.printResult(result)
	fmt.Printf("Task id: %s\n", record.ID)

	return nil
}

func (i *Interface) printResult(result *entity.TaskResult) {
	if result.Success {
		fmt.Printf("✅ %s\n", result.Message)
	} else {
		fmt.Printf("❌ %s\n", result.Message)
		if result.Error != "" {
			fmt.Printf("Error: %s\n", result.Error)
		}
	}

	if result.Data == nil {
		return
	}

	if total, ok := result.Data["total_steps"].(int); ok {
		successful, _ := result.Data["successful_steps"].(int)
		fmt.Printf("Steps: %d/%d successful\n", successful, total)
	}

	if outcome, ok := result.Data["expected_outcome"].(string); ok && outcome != "" {
		fmt.Printf("Expected outcome: %s\n", outcome)
	}

	if report, ok := result.Data["final_results"].(*entity.ExtractionReport); ok && report != nil {
		fmt.Printf("\nExtracted results (%s):\n", report.Method)

		for n, extracted := range report.Results {
			fmt.Printf("%d. %s\n", n+1, extracted.Title)
			if extracted.Price != "" {
				fmt.Printf("   price: %s\n", extracted.Price)
			}
			if extracted.Link != "" {
				fmt.Printf("   %s\n", extracted.Link)
			}
		}
	}
}

func (i *Interface) printTasks() {
	records := i.usecase.Tasks.List()

	if len(records) == 0 {
		fmt.Println("No tasks yet.")

		return
	}

	for _, record := range records {
		fmt.Printf("%s  [%s]  %s\n", record.ID, record.State, record.Goal)
	}
}

func (i *Interface) showTask(id string) error {
	record, ok := i.usecase.Tasks.Get(id)
	if !ok {
		return fmt.Errorf("task %s not found", id)
	}

	fmt.Printf("Goal:    %s\n", record.Goal)
	fmt.Printf("URL:     %s\n", record.StartURL)
	fmt.Printf("State:   %s\n", record.State)
	fmt.Printf("Created: %s\n", record.CreatedAt.Format("2006-01-02 15:04:05"))

	if record.Result != nil {
		fmt.Println()
		i.printResult(record.Result)
	}

	return nil
}

func (i *Interface) printBanner() {
	banner := `
╔═══════════════════════════════════════════════════╗
║                                                   ║
║          🧭  Browser Pilot  🌐                    ║
║                                                   ║
║   Goal-driven web automation: plan and execute    ║
║                                                   ║
╚═══════════════════════════════════════════════════╝
`
	fmt.Println(banner)
}

func (i *Interface) printHelp() {
	help := `
Available commands:
  run <url> <goal...> - Run an automation task against a page
  tasks               - List finished and running tasks
  show <task-id>      - Show a task's result
  help, h             - Show this help message
  exit, quit, q       - Exit the application

Examples:
  run https://duckduckgo.com find cheapest halloween dress
  run https://books.toscrape.com get the title and price of the first book
`
	fmt.Println(help)
}
