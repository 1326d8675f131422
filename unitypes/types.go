// Named helper types with built-in codec entries.
package unitypes

// BinData is used to hold raw binary blob information that should travel as a hex
// string instead of the base64 text the baseline codec uses for plain []byte. The
// built-in registry entry tags it so it decodes back to BinData rather than a string.
type BinData []byte
