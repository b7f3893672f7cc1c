// Command xv6shelld boots one kernel/memkernel.Kernel image and drives a
// script of syscalls against it, for exercising the dispatch layer the way
// a real shell would, without any of the process-scheduling, trap-handling
// or device-driver machinery a full kernel would need.
package main

func main() {
	Execute()
}
