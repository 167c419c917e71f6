package main

import (
	"fmt"
	"strconv"
	"strings"
)

type CommandArgs struct {
	commandName string
	params      map[string]string
}

func NewCommandArgs(args []string) *CommandArgs {
	var cmdName = ""
	var flags = make(map[string]string)
	for i := 1; i < len(args); i++ {
		var arg = args[i]
		if strings.HasPrefix(arg, "-") {
			if i < len(args)-1 {
				var k = strings.TrimPrefix(arg, "-")
				flags[k] = args[i+1]
				i++
			}
		} else if cmdName == "" {
			cmdName = arg
		}
	}
	return &CommandArgs{
		commandName: cmdName,
		params:      flags,
	}
}

func (ca *CommandArgs) CommandName() string {
	return ca.commandName
}

func (ca *CommandArgs) GetString(name string, defaultVal string) string {
	var val, ok = ca.params[name]
	if !ok {
		return defaultVal
	}
	return val
}

func (ca *CommandArgs) GetInt(name string, defaultVal int) (int, error) {
	var val, ok = ca.params[name]
	if !ok {
		return defaultVal, nil
	}
	var v, err = strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("-%v: %w", name, err)
	}
	return v, nil
}

func (ca *CommandArgs) GetFloat(name string, defaultVal float64) (float64, error) {
	var val, ok = ca.params[name]
	if !ok {
		return defaultVal, nil
	}
	var v, err = strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("-%v: %w", name, err)
	}
	return v, nil
}

type CommandHandler struct {
	items map[string]func() error
}

func NewCommandHandler() *CommandHandler {
	return &CommandHandler{
		items: make(map[string]func() error),
	}
}

func (ch *CommandHandler) Add(name string, handler func() error) {
	ch.items[name] = handler
}

func (ch *CommandHandler) Execute(commandName string) error {
	handler, found := ch.items[commandName]
	if !found {
		return fmt.Errorf("command not found %v", commandName)
	}
	return handler()
}
