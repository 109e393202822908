// Package pubsub is a local inter-process publish/subscribe bus. It
// delivers typed byte messages between cooperating processes on one
// host with no broker: the rendezvous is a shared filesystem directory
// (shared memory when available) holding one directory per subscriber
// channel, each containing a named pipe.
//
// A publish writes the encoded message once to a scratch file,
// hardlinks it into every live matching channel directory, and pushes
// the 8-byte message ID through each channel's pipe. A fetch reads one
// ID from the pipe without blocking, loads and unlinks the payload
// file, and decodes it. The pipe gives ordered, atomic notifications;
// the filesystem carries payloads of any size.
//
// Delivery is fan-out, ordered per publisher/subscriber pair, and best
// effort: a crashed subscriber loses its pending messages, and a
// publisher never blocks on a slow one. Any process that can create a
// FIFO, hardlink a file, and write the wire frame can participate,
// whatever language it is written in.
package pubsub
