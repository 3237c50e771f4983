package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn and printFn are test seams for user-facing output.
var (
	printlnFn = fmt.Println
	printFn   = fmt.Print
)

const helpText = `Available commands:
  status           show lock state and profile
  unlock           unlock (first run: choose a passphrase)
  lock             lock now
  set <name>       store a secret
  get <name>       print a secret
  list             list stored names
  delete <name>    delete a secret
  export <file>    write encrypted records to a file
  import <file>    read records from an export file
  exit | quit      leave the program`

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	touch()
	Status(ctx context.Context) error
	Unlock(ctx context.Context) error
	Lock(ctx context.Context) error
	Set(ctx context.Context, name string) error
	Get(ctx context.Context, name string) error
	List(ctx context.Context) error
	Delete(ctx context.Context, name string) error
	Export(ctx context.Context, path string) error
	Import(ctx context.Context, path string) error
}

// runREPL reads commands from reader and dispatches them to a until EOF,
// "exit"/"quit" or ctx cancellation. Each non-empty line calls a.touch
// before the command runs. Handler errors are printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printFn(fmt.Sprintf("zkvault %s> ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			printlnFn()
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		a.touch()

		cmd, args := parts[0], parts[1:]

		if n, ok := arity[cmd]; ok && len(args) != n {
			printlnFn(fmt.Sprintf("Usage: %s <%s>", cmd, argName[cmd]))
			continue
		}

		switch cmd {
		case "help":
			printlnFn(helpText)
		case "status":
			err = a.Status(ctx)
		case "unlock":
			err = a.Unlock(ctx)
		case "lock":
			err = a.Lock(ctx)
		case "set":
			err = a.Set(ctx, args[0])
		case "get":
			err = a.Get(ctx, args[0])
		case "l", "list":
			err = a.List(ctx)
		case "delete":
			err = a.Delete(ctx, args[0])
		case "export":
			err = a.Export(ctx, args[0])
		case "import":
			err = a.Import(ctx, args[0])
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}

var arity = map[string]int{"set": 1, "get": 1, "delete": 1, "export": 1, "import": 1}

var argName = map[string]string{"set": "name", "get": "name", "delete": "name", "export": "file", "import": "file"}
