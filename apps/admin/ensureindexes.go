package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) ensureIndexes() error {
	if err := ensureIndexesFunc(context.Background(), cli.db); err != nil {
		return err
	}
	fmt.Println("indexes are up to date")
	return nil
}
