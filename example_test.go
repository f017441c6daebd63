package hearth_test

import (
	"context"
	"fmt"

	"github.com/aretw0/hearth"
)

// ExampleNew walks a conversation to its results over the sample listings.
func ExampleNew() {
	assistant := hearth.New(hearth.WithPresentationDelay(0))
	ctx := context.Background()

	c, _ := assistant.Sessions().GetOrCreate("demo")
	_ = c.Open()
	for _, value := range []string{"pg", "Pune", "0-5000", "skip"} {
		_ = c.HandleOptionSelect(ctx, value)
		_ = c.Wait(ctx)
	}

	msgs := c.Messages(0)
	fmt.Println(c.Snapshot().State.Step)
	fmt.Println(msgs[len(msgs)-1].Content)
	// Output:
	// results
	// Great news! I found 1 property matching your search.
}
