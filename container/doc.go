/*
Package container reads and writes the PD++ database envelope, the binary
wrapper around an encrypted passman++ database.


Binary Format

All multi-byte integers are big endian. Fields are read in order, and some are
only present depending on the version and hash index read before them:

   4 bytes of magic, the ASCII string "PD++"

   1 byte for the format version, from 1 to 7

   1 byte for the HMAC table index

   1 unused spacer byte, only for versions below 6

   1 byte for the hash table index

   1 byte for the hash iteration count, absent when the hash index is 3
   ("no hashing, only derivation")

   1 byte, non-zero when the database is protected by a keyfile

   1 byte for the cipher table index

   2 bytes for the Argon2id memory usage, in units of 1000 KiB, only for
   version 7 and later with a hash index of 0

   1 byte for the clipboard clear delay in seconds, version 7 and later

   1 byte, non-zero when the payload is gzip compressed, version 7 and later

   the IV, as long as the selected cipher's nonce

   the database name, terminated by a newline

   the database description, terminated by a newline

All the remaining bytes are the ciphertext. Fields absent from older versions
take their defaults: 8 hash iterations, 64 memory units, a 15 second clear
delay, and compression enabled.


Legacy Format

Databases written before the PD++ envelope existed start with a
newline-terminated, hex encoded IV. Everything after the first line is the
ciphertext. See IsLegacy and ReadLegacy.
*/
package container
