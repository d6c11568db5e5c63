// Package probe issues the network request that decides whether a check is
// up. A probe either yields a status code or a transport error; it never
// classifies the result itself.
package probe
