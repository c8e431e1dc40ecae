package redis

import "fmt"

// Key prefix for all server data
const keyPrefix = "omg"

// userKey returns the Redis key for a user record
func userKey(username string) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, username)
}

// usernameSetKey returns the Redis key for the SET of all usernames
func usernameSetKey() string {
	return fmt.Sprintf("%s:usernames", keyPrefix)
}
