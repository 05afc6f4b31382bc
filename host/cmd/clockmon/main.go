// Command clockmon connects to a tickless firmware, reads its dictionary
// and measures the MCU clock rate against the host clock.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"time"

	"github.com/google/shlex"

	"tickless/host/clocksync"
	"tickless/host/config"
	"tickless/host/mcu"
	"tickless/host/serial"
)

var (
	configPath = flag.String("config", "clockmon.yaml", "Configuration file")
	device     = flag.String("device", "", "Serial device path (overrides config)")
	baud       = flag.Int("baud", 0, "Baud rate (ignored for USB CDC)")
	samples    = flag.Int("samples", 0, "Samples per measurement (overrides config)")
	once       = flag.Bool("once", false, "Measure once and exit")
)

var errQuit = errors.New("quit")

func main() {
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *device != "" {
		cfg.Device = *device
	}
	if *baud != 0 {
		cfg.Baud = *baud
	}
	if *samples != 0 {
		cfg.Samples = *samples
	}

	serialCfg := serial.DefaultConfig(cfg.Device)
	serialCfg.Baud = cfg.Baud

	fmt.Printf("Connecting to MCU on %s...\n", cfg.Device)
	conn, err := mcu.Connect(serialCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()
	conn.Timeout = cfg.Timeout

	if err := conn.Identify(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	printDictionary(os.Stdout, conn.Dictionary())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := &monitor{conn: conn, cfg: cfg, out: os.Stdout}
	if *once {
		if err := m.sample(ctx, nil); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		args, err := shlex.Split(scanner.Text())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		err = m.run(ctx, args)
		if errors.Is(err, errQuit) {
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

// client is the part of the MCU connection the monitor uses.
type client interface {
	clocksync.Source
	GetUptime() (uint64, error)
	ClockFreq() (uint32, error)
	Dictionary() *mcu.Dictionary
	RawDictionary() []byte
}

type monitor struct {
	conn client
	cfg  *config.Config
	out  io.Writer
}

func (m *monitor) run(ctx context.Context, args []string) error {
	switch args[0] {
	case "quit", "exit", "q":
		return errQuit
	case "help", "?":
		printHelp(m.out)
	case "dict":
		printDictionary(m.out, m.conn.Dictionary())
	case "raw":
		fmt.Fprintf(m.out, "%s\n", m.conn.RawDictionary())
	case "clock":
		clock, err := m.conn.GetClock()
		if err != nil {
			return err
		}
		fmt.Fprintf(m.out, "clock=%d\n", clock)
	case "uptime":
		uptime, err := m.conn.GetUptime()
		if err != nil {
			return err
		}
		fmt.Fprintf(m.out, "uptime=%d ticks", uptime)
		if freq, err := m.conn.ClockFreq(); err == nil && freq > 0 {
			fmt.Fprintf(m.out, " (%.3fs)", float64(uptime)/float64(freq))
		}
		fmt.Fprintln(m.out)
	case "sample":
		return m.sample(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q (type 'help' for available commands)", args[0])
	}
	return nil
}

// sample takes [count [interval]] clock readings and reports the fitted rate.
func (m *monitor) sample(ctx context.Context, args []string) error {
	count, interval := m.cfg.Samples, m.cfg.Interval
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 2 {
			return fmt.Errorf("sample count %q: need an integer >= 2", args[0])
		}
		count = n
	}
	if len(args) > 1 {
		d, err := time.ParseDuration(args[1])
		if err != nil {
			return fmt.Errorf("sample interval: %w", err)
		}
		interval = d
	}

	nominal, err := m.conn.ClockFreq()
	if err != nil {
		return err
	}
	est := clocksync.NewEstimator(nominal, m.cfg.Window)
	err = clocksync.Collect(ctx, m.conn, est, count, interval, func(s clocksync.Sample) {
		fmt.Fprintf(m.out, "  clock=%d rtt=%v\n", s.Clock, s.RTT.Round(time.Microsecond))
	})
	if err != nil {
		return err
	}

	freq, err := est.Frequency()
	if err != nil {
		return err
	}
	ppm, err := est.PPM()
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "nominal %d Hz, measured %.1f Hz, error %+.2f ppm\n", nominal, freq, ppm)
	return nil
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "\nAvailable commands:")
	fmt.Fprintln(w, "  help                    - Show this help message")
	fmt.Fprintln(w, "  dict                    - Print dictionary summary")
	fmt.Fprintln(w, "  raw                     - Print raw dictionary data")
	fmt.Fprintln(w, "  clock                   - Read the 32-bit MCU clock")
	fmt.Fprintln(w, "  uptime                  - Read the 64-bit MCU clock")
	fmt.Fprintln(w, "  sample [count [every]]  - Measure the MCU clock rate")
	fmt.Fprintln(w, "  quit/exit/q             - Exit the program")
	fmt.Fprintln(w)
}

func printDictionary(w io.Writer, dict *mcu.Dictionary) {
	if dict == nil {
		fmt.Fprintln(w, "No dictionary loaded")
		return
	}
	fmt.Fprintln(w, "\n=== MCU Dictionary ===")
	fmt.Fprintf(w, "Version: %s\n", dict.Version)

	fmt.Fprintln(w, "\nConfig:")
	for _, k := range sortedKeys(dict.Config) {
		fmt.Fprintf(w, "  %s = %s\n", k, dict.Config[k])
	}
	fmt.Fprintf(w, "\nCommands (%d):\n", len(dict.Commands))
	for _, k := range sortedKeys(dict.Commands) {
		fmt.Fprintf(w, "  [%d] %s\n", dict.Commands[k], k)
	}
	fmt.Fprintf(w, "\nResponses (%d):\n", len(dict.Responses))
	for _, k := range sortedKeys(dict.Responses) {
		fmt.Fprintf(w, "  [%d] %s\n", dict.Responses[k], k)
	}
	fmt.Fprintln(w, "======================")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
