/*
Copyright (c) 2013-2018 The btcsuite developers
Copyright (c) 2015-2016 The Decred developers
Copyright (c) 2013-2014 Conformal Systems LLC.
Use of this source code is governed by an ISC
license that can be found in the LICENSE file.

Tetrad is the validation core of a hybrid proof-of-work / proof-of-stake
chain. Block heights rotate between three mining algorithms (SHA256d,
scrypt and Groestl), and every PosInterval-th height is a proof-of-stake
slot that carries a coinstake transaction.

The default options are sane for most users. This means tetrad will work 'out of
the box' for most users. However, there are also a wide variety of flags that
can be used to control it.

Usage:

	tetrad [OPTIONS]

For an up-to-date help message:

	tetrad --help

The long form of all option flags (except -C) can be specified in a configuration
file that is automatically parsed when tetrad starts up. By default, the
configuration file is located at ~/.tetrad/tetrad.conf on POSIX-style operating
systems and %LOCALAPPDATA%\Tetrad\tetrad.conf on Windows. The -C (--configfile)
flag can be used to override this location.

Network parameters of simnet and regtest may be changed with a JSON file
passed through --override-chain-params-file, for example:

	{
		"lanes": {"scrypt": {"powMax": "7fff...", "targetSpacingInMilliSeconds": 60000}},
		"posInterval": 5,
		"blockCoinbaseMaturity": 10,
		"skipProofOfWork": true
	}
*/
package main
