//go:build !unix

package session

func holdInterrupts() (release func()) { return func() {} }
