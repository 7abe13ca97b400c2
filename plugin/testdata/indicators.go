package main

import "errors"

// Spread returns the difference between the first two arguments.
func Spread(args []interface{}) (interface{}, error) {
	if len(args) != 2 {
		return nil, errors.New("spread expects 2 arguments")
	}
	a, ok1 := args[0].(float64)
	b, ok2 := args[1].(float64)
	if !ok1 || !ok2 {
		return nil, errors.New("spread expects two reals")
	}
	return a - b, nil
}
