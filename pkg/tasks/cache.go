package tasks

import (
	"encoding/gob"
	"os"
)

func init() {
	gob.Register(TaskList{})
	gob.Register(Task{})
	gob.Register(TaskCmdScript{})
	gob.Register(TaskCmdTaskRef{})
}

func cacheable(list TaskList) TaskList {
	result := TaskList{}
	for name, task := range list {
		hasAction := false
		for _, cmd := range task.Cmds {
			if cmd.ToAction() != nil {
				hasAction = true
				break
			}
		}

		// native actions are closures, they can't round-trip through gob
		if !hasAction {
			result[name] = task
		}
	}
	return result
}

// WriteCache stores the parsed script tasks and the option values they were
// parsed with. Tasks containing native actions are left out, they are
// rebuilt from the project config on every run anyway.
func WriteCache(file string, options map[string]string, list TaskList) error {
	handle, err := os.Create(file)
	if err != nil {
		return err
	}
	defer handle.Close()

	encoder := gob.NewEncoder(handle)
	err = encoder.Encode(options)
	if err != nil {
		return err
	}

	return encoder.Encode(cacheable(list))
}

func ReadCache(file string) (map[string]string, TaskList, error) {
	handle, err := os.Open(file)
	if err != nil {
		return nil, nil, err
	}
	defer handle.Close()

	decoder := gob.NewDecoder(handle)

	var options map[string]string
	err = decoder.Decode(&options)
	if err != nil {
		return nil, nil, err
	}

	var result TaskList
	err = decoder.Decode(&result)
	if err != nil {
		return options, nil, err
	}

	return options, result, nil
}
