// Package cli: интерактивная командная консоль статистики каналов.
// Сервис стартует фоном, читает команды из readline и передаёт их исполнителю
// commands.Executor. Start/Stop идемпотентны.
package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"tg-stats/internal/domain/commands"
	"tg-stats/internal/infra/logger"
	"tg-stats/internal/infra/pr"

	"github.com/go-faster/errors"
)

// commandDescriptor описывает одну CLI-команду: её имя и краткое описание для help.
type commandDescriptor struct {
	name        string
	description string
}

// commandDescriptors: реестр доступных команд. Рендерится в help и подсказки.
// Важно: имена должны совпадать с кейсами в handleCommand().
var (
	commandDescriptors = []commandDescriptor{
		{name: "help", description: "Show available commands with short descriptions"},
		{name: "login", description: "Sign in to Telegram (phone, code, password)"},
		{name: "channels", description: "List channels available for statistics"},
		{name: "stats", description: "stats <n>: current month statistics for channel n"},
		{name: "whoami", description: "Display information about the current account"},
		{name: "logout", description: "Log out and remove the local session"},
		{name: "version", description: "Print version"},
		{name: "exit", description: "Stop CLI and terminate the application"},
	}
)

// errUsage: неверные аргументы команды.
var errUsage = errors.New("usage")

// Service инкапсулирует CLI и интегрируется в lifecycle приложения.
type Service struct {
	exec      commands.Executor
	stopApp   context.CancelFunc // внешняя отмена приложения (exit и Ctrl-C на пустой строке)
	cancel    context.CancelFunc // локальная отмена run-цикла CLI
	wg        sync.WaitGroup
	onceStart sync.Once
	onceStop  sync.Once
}

// NewService создаёт CLI-сервис поверх исполнителя команд.
func NewService(exec commands.Executor, stopApp context.CancelFunc) *Service {
	return &Service{exec: exec, stopApp: stopApp}
}

// Start запускает основной цикл CLI в отдельной горутине. Повторные вызовы игнорируются.
func (s *Service) Start(ctx context.Context) {
	s.onceStart.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		s.cancel = cancel
		s.wg.Go(func() {
			s.run(runCtx)
		})
	})
}

// Stop завершает CLI: посылает внешнюю остановку приложения, прерывает readline,
// отменяет локальный контекст и дожидается завершения run-цикла.
func (s *Service) Stop() {
	s.onceStop.Do(func() {
		if s.stopApp != nil {
			s.stopApp()
		}
		if rl := pr.Rl(); rl != nil {
			pr.InterruptReadline()
		}
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()
	})
}

// run: основной цикл обработчика CLI.
func (s *Service) run(ctx context.Context) {
	logger.Debug("CLI run started")
	pr.SetPrompt("> ")
	pr.Println("CLI started. Enter commands:", joinCommandNames(commandDescriptors))
	pr.Println("Press '?' or type 'help' for detailed descriptions.")
	installKeyHandlers(s.stopApp)

	// Выход из цикла означает завершение приложения, в том числе по EOF.
	defer func() {
		if s.stopApp != nil {
			s.stopApp()
		}
	}()

	for {
		if ctx.Err() != nil {
			logger.Debug("CLI: context canceled")
			return
		}

		line, err := pr.Rl().Readline()
		if err != nil {
			logger.Debug("CLI: deactivated (io.EOF)")
			return
		}

		if s.handleCommand(ctx, line) {
			logger.Debugf("CLI: command %q requested exit", strings.TrimSpace(line))
			return
		}
	}
}

// installKeyHandlers подключает обработчики специальных клавиш для readline:
//   - '?': печать help без отправки символа в текущую строку;
//   - Ctrl-C на пустой строке: остановка приложения и прерывание readline;
//   - Ctrl-C на непустой строке: очистка текущей строки.
func installKeyHandlers(stop context.CancelFunc) {
	rl := pr.Rl()
	if rl == nil || rl.Config == nil {
		return
	}

	prev := rl.Config.Listener
	rl.Config.SetListener(func(line []rune, pos int, key rune) ([]rune, int, bool) {
		if key == '?' {
			printCommandHelp()
			if pos > 0 && pos <= len(line) {
				trimmed := append([]rune{}, line[:pos-1]...)
				trimmed = append(trimmed, line[pos:]...)
				return trimmed, pos - 1, true
			}
			return line, pos, true
		}
		if key == 3 { //nolint: mnd // Ctrl-C (ETX, rune value 3)
			if strings.TrimSpace(string(line)) == "" {
				if stop != nil {
					stop()
				}
				pr.InterruptReadline()
				return line, pos, true
			}
			return []rune{}, 0, true
		}
		if prev != nil {
			return prev.OnChange(line, pos, key)
		}
		return nil, 0, false
	})
}

func printCommandHelp() {
	for _, text := range buildCommandHelpLines(commandDescriptors) {
		pr.Println(text)
	}
}

// parseCommand разделяет строку на имя команды (в нижнем регистре) и аргументы.
func parseCommand(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}

// parseIndex разбирает номер канала для "stats <n>".
func parseIndex(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errors.Wrap(errUsage, "stats <n>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, errors.Wrapf(errUsage, "stats <n>: %q is not a channel number", args[0])
	}
	return n, nil
}

// handleCommand разбирает введённую команду и выполняет соответствующее действие.
// Возвращает true, если команда инициирует завершение CLI ("exit").
func (s *Service) handleCommand(ctx context.Context, line string) bool {
	name, args := parseCommand(line)
	switch name {
	case "help":
		printCommandHelp()
	case "login":
		s.handleLogin(ctx)
	case "channels":
		s.handleChannels(ctx)
	case "stats":
		s.handleStats(ctx, args)
	case "whoami":
		if res, err := s.exec.Whoami(ctx); err != nil {
			pr.ErrPrintln("whoami error:", err)
		} else {
			pr.Println(formatWhoami(res))
		}
	case "logout":
		if err := s.exec.Logout(ctx); err != nil {
			pr.ErrPrintln("logout error:", err)
		} else {
			pr.Println("Logged out.")
		}
	case "version":
		if res, err := s.exec.Version(ctx); err == nil {
			pr.Println(fmt.Sprintf("%s v%s", res.Name, res.Version))
		}
	case "exit", "quit":
		if s.stopApp != nil {
			s.stopApp()
		}
		return true
	case "":
		// ignore
	default:
		pr.Println("unknown command:", name)
	}
	return false
}

func (s *Service) handleLogin(ctx context.Context) {
	res, err := s.exec.Login(ctx)
	if err != nil {
		pr.ErrPrintln("login error:", err)
		return
	}
	pr.Println(formatWhoami(&res.User))
}

func (s *Service) handleChannels(ctx context.Context) {
	pr.Println("Fetching channels...")
	res, err := s.exec.Channels(ctx)
	if err != nil {
		pr.ErrPrintln("channels error:", err)
		return
	}
	for _, line := range formatChannels(res.Channels) {
		pr.Println(line)
	}
}

func (s *Service) handleStats(ctx context.Context, args []string) {
	index, err := parseIndex(args)
	if err != nil {
		pr.ErrPrintln(err)
		return
	}
	pr.Println("Collecting messages for the current month...")
	res, err := s.exec.Stats(ctx, index)
	switch {
	case errors.Is(err, commands.ErrNoChannels):
		pr.Println("No channels found.")
		return
	case err != nil:
		pr.ErrPrintln("stats error:", err)
		return
	}
	for _, line := range formatReport(res) {
		pr.Println(line)
	}
}

// joinCommandNames собирает строку имён команд, разделённых запятыми, для короткой подсказки.
func joinCommandNames(descriptors []commandDescriptor) string {
	names := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		names = append(names, d.name)
	}
	return strings.Join(names, ", ")
}

// buildCommandHelpLines генерирует строки помощи вида "<name> - <description>".
func buildCommandHelpLines(descriptors []commandDescriptor) []string {
	lines := make([]string, 0, len(descriptors)+1)
	lines = append(lines, "Available commands:")
	for _, descriptor := range descriptors {
		lines = append(lines, fmt.Sprintf("  %-8s - %s", descriptor.name, descriptor.description))
	}
	return lines
}
