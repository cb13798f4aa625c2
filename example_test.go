package guestrt_test

import (
	"fmt"
	"time"

	guestrt "github.com/Swind/go-guest-runtime"
	"github.com/Swind/go-guest-runtime/future"
	"github.com/Swind/go-guest-runtime/host"
)

// ExampleMain demonstrates a guest entry point on the simulated host.
func ExampleMain() {
	h := host.NewSim()
	defer h.Stop()

	err := guestrt.Main(h, nil, func(s guestrt.Spawner) {
		s.Spawn(future.Seq(
			future.Do(func() { fmt.Println("step 1") }),
			future.Sleep(h, 10*time.Millisecond),
			future.Do(func() { fmt.Println("step 2 after timer") }),
			future.Do(guestrt.ShutdownGlobalExecutor),
		))
	})
	fmt.Println("main returned:", err)

	// Output:
	// step 1
	// step 2 after timer
	// main returned: <nil>
}

// ExampleNewExecutor shows the LIFO default: the last spawn runs first.
func ExampleNewExecutor() {
	h := host.NewSim()
	defer h.Stop()
	e := guestrt.NewExecutor(h, nil)

	for i := 1; i <= 3; i++ {
		e.Spawner().Spawn(future.Do(func() { fmt.Println("task", i) }))
	}
	polls, _ := e.RunUntilIdle()
	fmt.Println("polls:", polls)

	// Output:
	// task 3
	// task 2
	// task 1
	// polls: 3
}
