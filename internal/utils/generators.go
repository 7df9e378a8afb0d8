package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateID returns "<prefix>_<unix seconds>_<6 random digits>". Ids are
// internal and only need to be unique in practice, not unguessable.
func GenerateID(prefix string) string {
	timestamp := time.Now().Unix()
	randomNum, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return fmt.Sprintf("%s_%d_%06d", prefix, timestamp, time.Now().Nanosecond()%1000000)
	}
	return fmt.Sprintf("%s_%d_%06d", prefix, timestamp, randomNum.Int64())
}
