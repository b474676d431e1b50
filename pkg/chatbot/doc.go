/*
Package chatbot hosts a markov.Chain behind a chat interface.

Bot decides how to answer each inbound Message: it greets, reports chain
statistics, or synthesizes a reply, each synthesis running under its own
random source and wall-clock timeout. Modeling failures are turned into
informational replies so one bad draw never takes the host down. Discord
connects a Bot to a Discord gateway session.
*/
package chatbot
